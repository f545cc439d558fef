package service

import "errors"

var (
	// ErrInvalidLocation is returned when coordinates are out of range or not finite.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidTemplate is returned when a certificate template fails validation.
	ErrInvalidTemplate = errors.New("invalid certificate template")

	// ErrInvalidTemplateID is returned when template ID is empty.
	ErrInvalidTemplateID = errors.New("invalid template id")

	// ErrInvalidVisitorName is returned when the certificate holder's name is empty.
	ErrInvalidVisitorName = errors.New("invalid visitor name")

	// ErrIssuanceInProgress is returned when the same certificate is already being issued.
	ErrIssuanceInProgress = errors.New("certificate issuance already in progress")

	// ErrCodeExhausted is returned when no unused certificate code could be generated.
	ErrCodeExhausted = errors.New("could not allocate a unique certificate code")
)
