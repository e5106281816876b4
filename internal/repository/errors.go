package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound covers both "no such row" and "row owned by someone else";
	// callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken surfaces the unique index on users.email. During the
	// sign-in check-then-create race it means another request won.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidField is the store-side validation backstop (varchar limits,
	// non-blank checks).
	ErrInvalidField = errors.New("invalid field value")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgStringTooLong       = "22001"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
