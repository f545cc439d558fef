package domain

import "time"

// ElementType is the kind of a certificate template element.
type ElementType string

const (
	ElementText     ElementType = "text"
	ElementVariable ElementType = "variable"
	ElementQRCode   ElementType = "qrcode"
)

// Valid reports whether t is a known element type.
func (t ElementType) Valid() bool {
	switch t {
	case ElementText, ElementVariable, ElementQRCode:
		return true
	}
	return false
}

// TemplateElement is one positioned element of a template. For variable
// elements Text holds the {{token}} pattern.
type TemplateElement struct {
	ID       string      `json:"id"`
	Type     ElementType `json:"type"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	FontSize float64     `json:"fontSize"`
	Color    string      `json:"color"`
	Text     string      `json:"text"`
}

// Dimensions is the canvas size of a template.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CertificateTemplate is the document edited in the template designer.
type CertificateTemplate struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	BackgroundURL string            `json:"backgroundUrl"`
	Elements      []TemplateElement `json:"elements"`
	Dimensions    Dimensions        `json:"dimensions"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// RenderedElement is a template element with its final value resolved.
type RenderedElement struct {
	ID       string      `json:"id"`
	Type     ElementType `json:"type"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	FontSize float64     `json:"fontSize"`
	Color    string      `json:"color"`
	Value    string      `json:"value"`
}
