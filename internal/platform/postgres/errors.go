package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ankiqueue/ankiqueue/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	// checkViolationCode is the PostgreSQL error code for check
	// constraint violations (an unknown status string, for example).
	checkViolationCode = "23514"

	// notNullViolationCode is the PostgreSQL error code for not null
	// violations.
	notNullViolationCode = "23502"
)

// MapError maps a database error to an appropriate store error. It
// wraps the original error to preserve context for logging while giving
// callers stable sentinels to branch on.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrCardNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case checkViolationCode:
			return fmt.Errorf("%w: check constraint violation (%s): %v",
				store.ErrStorage, pgErr.ConstraintName, err)
		case notNullViolationCode:
			return fmt.Errorf("%w: not null violation (%s): %v",
				store.ErrStorage, pgErr.ColumnName, err)
		}
	}

	return fmt.Errorf("%w: %v", store.ErrStorage, err)
}
