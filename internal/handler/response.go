package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"culturaviva/internal/navigation"
	"culturaviva/internal/repository"
	"culturaviva/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Server-side failures are also attached to the gin context so middleware
// can report them.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	resp := ErrorResponse{Error: err.Error()}
	if errors.Is(err, navigation.ErrRouteUnavailable) {
		resp.Code = navigation.Describe(err).Code
	}
	c.JSON(code, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidTemplate),
		errors.Is(err, service.ErrInvalidTemplateID),
		errors.Is(err, service.ErrInvalidVisitorName),
		errors.Is(err, navigation.ErrInvalidProfile),
		errors.Is(err, navigation.ErrInvalidDestination):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrIssuanceInProgress):
		return http.StatusConflict

	// Upstream directions provider failures
	case errors.Is(err, navigation.ErrRouteUnavailable):
		return http.StatusBadGateway

	// Service unavailable
	case errors.Is(err, service.ErrCodeExhausted):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
