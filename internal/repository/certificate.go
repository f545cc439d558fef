package repository

import (
	"context"

	"culturaviva/internal/domain"
)

// CertificateRepository defines the persistence operations for issued certificates.
type CertificateRepository interface {
	// Create persists a new certificate. It returns ErrConflict if the code is taken.
	Create(ctx context.Context, cert *domain.Certificate) error

	// GetByCode retrieves a certificate by its public code.
	GetByCode(ctx context.Context, code string) (*domain.Certificate, error)
}
