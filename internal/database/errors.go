package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Errors
var (
	// ErrNotConnected is returned by store operations before Connect.
	ErrNotConnected = errors.New("postgres store not connected")

	// ErrConstraintViolation marks writes rejected by a check or not-null
	// constraint. Retrying with the same data will never succeed.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrTimeout marks operations that exceeded their deadline.
	ErrTimeout = errors.New("operation timeout")
)

// PostgreSQL error codes the store cares about.
const (
	codeNotNullViolation = "23502"
	codeCheckViolation   = "23514"
)

// mapError folds driver errors into the store's error taxonomy. Unrecognized
// errors pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeCheckViolation, codeNotNullViolation:
			return fmt.Errorf("%w: %s (constraint %s)", ErrConstraintViolation, pgErr.Message, pgErr.ConstraintName)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return err
}
