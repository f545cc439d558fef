package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"culturaviva/internal/domain"
	"culturaviva/internal/repository"
)

// TemplateRepository is a PostgreSQL implementation of repository.TemplateRepository.
// Elements are stored as a JSONB document.
type TemplateRepository struct {
	q Querier
}

// NewTemplateRepository creates a new PostgreSQL template repository.
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{q: db}
}

// NewTemplateRepositoryWithTx creates a template repository using a transaction.
func NewTemplateRepositoryWithTx(tx *sql.Tx) *TemplateRepository {
	return &TemplateRepository{q: tx}
}

const templateColumns = `id, name, background_url, elements, width, height, created_at, updated_at`

// Create persists a new template.
func (r *TemplateRepository) Create(ctx context.Context, tpl *domain.CertificateTemplate) error {
	query := `
		INSERT INTO certificate_templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	elements, err := marshalElements(tpl.Elements)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query,
		tpl.ID,
		tpl.Name,
		tpl.BackgroundURL,
		elements,
		tpl.Dimensions.Width,
		tpl.Dimensions.Height,
		tpl.CreatedAt,
		tpl.UpdatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a template by ID.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*domain.CertificateTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM certificate_templates WHERE id = $1`

	tpl, err := scanTemplate(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return tpl, nil
}

// GetAll retrieves all templates, most recently updated first.
func (r *TemplateRepository) GetAll(ctx context.Context) ([]*domain.CertificateTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM certificate_templates ORDER BY updated_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*domain.CertificateTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

// Update replaces an existing template.
func (r *TemplateRepository) Update(ctx context.Context, tpl *domain.CertificateTemplate) error {
	query := `
		UPDATE certificate_templates
		SET name = $1, background_url = $2, elements = $3, width = $4, height = $5, updated_at = $6
		WHERE id = $7
	`

	elements, err := marshalElements(tpl.Elements)
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query,
		tpl.Name,
		tpl.BackgroundURL,
		elements,
		tpl.Dimensions.Width,
		tpl.Dimensions.Height,
		tpl.UpdatedAt,
		tpl.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete removes a template.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM certificate_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*domain.CertificateTemplate, error) {
	var tpl domain.CertificateTemplate
	var elements []byte

	if err := row.Scan(
		&tpl.ID,
		&tpl.Name,
		&tpl.BackgroundURL,
		&elements,
		&tpl.Dimensions.Width,
		&tpl.Dimensions.Height,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(elements, &tpl.Elements); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func marshalElements(elements []domain.TemplateElement) ([]byte, error) {
	if elements == nil {
		elements = []domain.TemplateElement{}
	}
	return json.Marshal(elements)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
