package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"culturaviva/internal/domain"
	"culturaviva/internal/repository"
)

// CertificateRepository is a PostgreSQL implementation of repository.CertificateRepository.
type CertificateRepository struct {
	q Querier
}

// NewCertificateRepository creates a new PostgreSQL certificate repository.
func NewCertificateRepository(db *sql.DB) *CertificateRepository {
	return &CertificateRepository{q: db}
}

// NewCertificateRepositoryWithTx creates a certificate repository using a transaction.
func NewCertificateRepositoryWithTx(tx *sql.Tx) *CertificateRepository {
	return &CertificateRepository{q: tx}
}

// Create persists a new certificate.
func (r *CertificateRepository) Create(ctx context.Context, cert *domain.Certificate) error {
	query := `
		INSERT INTO certificates (id, code, template_id, visitor_name, issuer_name, title, issued_at, variables, elements)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	variables := cert.Variables
	if variables == nil {
		variables = map[string]string{}
	}
	vars, err := json.Marshal(variables)
	if err != nil {
		return err
	}

	rendered := cert.Elements
	if rendered == nil {
		rendered = []domain.RenderedElement{}
	}
	elements, err := json.Marshal(rendered)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query,
		cert.ID,
		cert.Code,
		cert.TemplateID,
		cert.VisitorName,
		cert.IssuerName,
		cert.Title,
		cert.IssuedAt,
		vars,
		elements,
	)
	return mapWriteError(err)
}

// GetByCode retrieves a certificate by its public code.
func (r *CertificateRepository) GetByCode(ctx context.Context, code string) (*domain.Certificate, error) {
	query := `
		SELECT id, code, template_id, visitor_name, issuer_name, title, issued_at, variables, elements
		FROM certificates WHERE code = $1
	`

	var cert domain.Certificate
	var vars, elements []byte

	err := r.q.QueryRowContext(ctx, query, code).Scan(
		&cert.ID,
		&cert.Code,
		&cert.TemplateID,
		&cert.VisitorName,
		&cert.IssuerName,
		&cert.Title,
		&cert.IssuedAt,
		&vars,
		&elements,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(vars, &cert.Variables); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(elements, &cert.Elements); err != nil {
		return nil, err
	}
	return &cert, nil
}
