package tests

import (
	"time"

	"culturaviva/internal/domain"
)

// NewTestTemplate returns a valid template exercising every element type.
func NewTestTemplate(id string) *domain.CertificateTemplate {
	now := time.Date(2026, 5, 18, 9, 0, 0, 0, time.UTC)
	return &domain.CertificateTemplate{
		ID:            id,
		Name:          "Semana dos Museus",
		BackgroundURL: "https://cdn.example.org/backgrounds/museus.png",
		Dimensions:    domain.Dimensions{Width: 1123, Height: 794},
		Elements: []domain.TemplateElement{
			{ID: "heading", Type: domain.ElementText, X: 100, Y: 80, FontSize: 36, Color: "#222222", Text: "Certificado de Participação"},
			{ID: "body", Type: domain.ElementVariable, X: 100, Y: 300, FontSize: 20, Color: "#333333", Text: "Certificamos que {{visitorName}} participou de {{ title }} em {{issuedAt}}."},
			{ID: "signature", Type: domain.ElementVariable, X: 100, Y: 600, FontSize: 16, Color: "#333333", Text: "{{issuerName}} · {{ code }}"},
			{ID: "qr", Type: domain.ElementQRCode, X: 950, Y: 620, FontSize: 0, Color: "#000000"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
