package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"culturaviva/internal/domain"
	"culturaviva/internal/service"
)

// CertificateHandler handles HTTP requests for certificates.
type CertificateHandler struct {
	certificateService *service.CertificateService
}

// NewCertificateHandler creates a new CertificateHandler.
func NewCertificateHandler(certificateService *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// IssueCertificateRequest is the HTTP request body for issuing a certificate.
type IssueCertificateRequest struct {
	TemplateID  string            `json:"templateId"`
	VisitorName string            `json:"visitorName"`
	IssuerName  string            `json:"issuerName,omitempty"`
	Title       string            `json:"title,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
}

// IssueCertificateResponse is the HTTP response for an issued certificate.
type IssueCertificateResponse struct {
	ID               string                   `json:"id"`
	Code             string                   `json:"code"`
	TemplateID       string                   `json:"templateId"`
	VisitorName      string                   `json:"visitorName"`
	IssuerName       string                   `json:"issuerName"`
	Title            string                   `json:"title"`
	IssuedAt         string                   `json:"issuedAt"`
	ValidationURL    string                   `json:"validationUrl"`
	Elements         []domain.RenderedElement `json:"elements"`
	UnresolvedTokens []string                 `json:"unresolvedTokens,omitempty"`
}

// Issue handles POST /v1/certificates
func (h *CertificateHandler) Issue(c *gin.Context) {
	var req IssueCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.certificateService.Issue(c.Request.Context(), service.IssueRequest{
		TemplateID:  req.TemplateID,
		VisitorName: req.VisitorName,
		IssuerName:  req.IssuerName,
		Title:       req.Title,
		Variables:   req.Variables,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	cert := result.Certificate
	respondJSON(c, http.StatusCreated, IssueCertificateResponse{
		ID:               cert.ID,
		Code:             cert.Code,
		TemplateID:       cert.TemplateID,
		VisitorName:      cert.VisitorName,
		IssuerName:       cert.IssuerName,
		Title:            cert.Title,
		IssuedAt:         cert.IssuedAt.Format(time.RFC3339),
		ValidationURL:    result.ValidationURL,
		Elements:         cert.Elements,
		UnresolvedTokens: result.UnresolvedTokens,
	})
}

// Validate handles GET /public/certificates/:code
//
// An unknown code answers 404 with {"valid": false}; storage failures
// answer 500 so clients can tell the two apart.
func (h *CertificateHandler) Validate(c *gin.Context) {
	result, err := h.certificateService.Validate(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	if !result.Valid {
		respondJSON(c, http.StatusNotFound, result)
		return
	}
	respondJSON(c, http.StatusOK, result)
}
