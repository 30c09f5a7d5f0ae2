package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/lib/pq"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// mapError translates driver errors into application errors. notFound is
// returned for sql.ErrNoRows.
func mapError(err error, notFound *apperror.Error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolationCode:
			return apperror.ErrConflict.WithMessage("%s: resource already exists", action).WithCause(err)
		case foreignKeyViolationCode:
			return apperror.ErrBusinessRule.WithMessage("%s: resource is still referenced", action).WithCause(err)
		case checkViolationCode:
			return apperror.ErrBusinessRule.WithMessage("%s: constraint %s violated", action, pqErr.Constraint).WithCause(err)
		}
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// checkRowsAffected returns notFound when an UPDATE or DELETE touched no rows.
func checkRowsAffected(result sql.Result, notFound *apperror.Error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
