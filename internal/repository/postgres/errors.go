package postgres

import (
	"errors"

	"github.com/lib/pq"

	"culturaviva/internal/repository"
)

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// mapWriteError converts driver errors into repository sentinels.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrConflict
	}
	return err
}
