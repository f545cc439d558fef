package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS certificate_templates (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		background_url TEXT NOT NULL DEFAULT '',
		elements       JSONB NOT NULL DEFAULT '[]',
		width          DOUBLE PRECISION NOT NULL,
		height         DOUBLE PRECISION NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS certificates (
		id           TEXT PRIMARY KEY,
		code         TEXT NOT NULL UNIQUE,
		template_id  TEXT NOT NULL DEFAULT '',
		visitor_name TEXT NOT NULL,
		issuer_name  TEXT NOT NULL DEFAULT '',
		title        TEXT NOT NULL DEFAULT '',
		issued_at    TIMESTAMPTZ NOT NULL,
		variables    JSONB NOT NULL DEFAULT '{}',
		elements     JSONB NOT NULL DEFAULT '[]'
	)`,
}

// EnsureSchema creates the tables used by the repositories if missing.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
