package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MapError translates driver errors into domain errors: sql.ErrNoRows becomes
// notFoundErr and a unique violation becomes duplicateErr. Anything else is
// returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}
	if pgCode(err) == pgUniqueViolation {
		return duplicateErr
	}
	return err
}

// IsConstraintViolation reports whether err is a foreign key or check
// constraint failure, i.e. the row was rejected for its content.
func IsConstraintViolation(err error) bool {
	switch pgCode(err) {
	case pgForeignKeyViolation, pgCheckViolation:
		return true
	}
	return false
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
