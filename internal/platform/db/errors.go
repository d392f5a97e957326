package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hospify/hospify/internal/platform/apperr"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeStringTooLong       = "22001"
	codeNumericOutOfRange   = "22003"
)

// IsUniqueViolation reports whether err is a unique constraint failure,
// optionally restricted to the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsForeignKeyViolation reports whether err is a foreign key failure, such as
// deleting a row that others still reference.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}

// Translate classifies driver errors. Missing rows and dangling references
// become NotFound, duplicates become Conflict, check failures and values
// that do not fit their column become Validation. Anything else passes
// through unchanged.
func Translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, err, what+" not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Wrap(apperr.KindConflict, err, what+" already exists")
		case codeForeignKeyViolation:
			return apperr.Wrap(apperr.KindNotFound, err, "referenced record not found")
		case codeCheckViolation:
			return apperr.Wrap(apperr.KindValidation, err, "invalid "+what)
		case codeStringTooLong, codeNumericOutOfRange:
			return apperr.Wrap(apperr.KindValidation, err, what+" value out of range")
		}
	}
	return err
}
