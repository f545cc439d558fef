package domain

import "time"

// Certificate is an issued certificate, publicly verifiable by its code.
type Certificate struct {
	ID          string
	Code        string
	TemplateID  string
	VisitorName string
	IssuerName  string
	Title       string
	IssuedAt    time.Time
	Variables   map[string]string
	Elements    []RenderedElement
}

// CertificateData is the public view returned by certificate validation.
type CertificateData struct {
	VisitorName string            `json:"visitorName"`
	IssuerName  string            `json:"issuerName"`
	Title       string            `json:"title"`
	IssuedAt    time.Time         `json:"issuedAt"`
	Code        string            `json:"code"`
	TemplateID  string            `json:"templateId,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
}

// Data returns the public view of c.
func (c *Certificate) Data() *CertificateData {
	return &CertificateData{
		VisitorName: c.VisitorName,
		IssuerName:  c.IssuerName,
		Title:       c.Title,
		IssuedAt:    c.IssuedAt,
		Code:        c.Code,
		TemplateID:  c.TemplateID,
		Variables:   c.Variables,
	}
}
