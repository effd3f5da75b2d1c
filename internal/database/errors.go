package database

import (
	"errors"
	"fmt"

	"github.com/devcrafted/socialflow/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that the store maps onto the model error taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// usersEmailConstraint is the unique constraint backing users.email. Only a
// violation of this constraint means a duplicate email; other unique
// violations surface as-is.
const usersEmailConstraint = "users_email_key"

// mapError translates driver-level errors into store errors. Unique
// violations on users.email become ErrDuplicateEmail; foreign key violations
// mean the referenced row does not exist.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == usersEmailConstraint {
				return fmt.Errorf("%s: %w", op, models.ErrDuplicateEmail)
			}
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
