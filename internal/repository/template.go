package repository

import (
	"context"

	"culturaviva/internal/domain"
)

// TemplateRepository defines the persistence operations for certificate templates.
type TemplateRepository interface {
	// Create persists a new template.
	Create(ctx context.Context, tpl *domain.CertificateTemplate) error

	// GetByID retrieves a template by ID.
	GetByID(ctx context.Context, id string) (*domain.CertificateTemplate, error)

	// GetAll retrieves all templates, most recently updated first.
	GetAll(ctx context.Context) ([]*domain.CertificateTemplate, error)

	// Update replaces an existing template.
	Update(ctx context.Context, tpl *domain.CertificateTemplate) error

	// Delete removes a template.
	Delete(ctx context.Context, id string) error
}
