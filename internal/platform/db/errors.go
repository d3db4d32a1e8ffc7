package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// StorageError reports a failed statement against the database, either a
// constraint violation or a lost connection.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err and a *StorageError otherwise. Errors that
// already are storage errors are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool     { return pgCode(err) == codeUniqueViolation }
func IsForeignKeyViolation(err error) bool { return pgCode(err) == codeForeignKeyViolation }
func IsCheckViolation(err error) bool      { return pgCode(err) == codeCheckViolation }

// ConstraintName returns the name of the violated constraint, or "" when err
// is not a constraint violation reported by Postgres.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
