package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"culturaviva/internal/domain"
	"culturaviva/internal/service"
)

// TemplateHandler handles HTTP requests for certificate templates.
type TemplateHandler struct {
	templateService *service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// TemplateVariablesResponse lists the tokens a template references.
type TemplateVariablesResponse struct {
	TemplateID string   `json:"templateId"`
	Variables  []string `json:"variables"`
	BuiltIn    []string `json:"builtIn"`
}

// Create handles POST /v1/certificate-templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req domain.CertificateTemplate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	tpl, err := h.templateService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, tpl)
}

// Get handles GET /v1/certificate-templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.templateService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tpl)
}

// GetAll handles GET /v1/certificate-templates
func (h *TemplateHandler) GetAll(c *gin.Context) {
	templates, err := h.templateService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, templates)
}

// Update handles PUT /v1/certificate-templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	var req domain.CertificateTemplate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	tpl, err := h.templateService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tpl)
}

// Delete handles DELETE /v1/certificate-templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templateService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Variables handles GET /v1/certificate-templates/:id/variables
func (h *TemplateHandler) Variables(c *gin.Context) {
	tpl, err := h.templateService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	vars := service.Tokens(tpl)
	if vars == nil {
		vars = []string{}
	}

	respondJSON(c, http.StatusOK, TemplateVariablesResponse{
		TemplateID: tpl.ID,
		Variables:  vars,
		BuiltIn:    service.BuiltInVariables(),
	})
}
