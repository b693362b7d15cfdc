package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	usersEmailUniq = "users_email_key"
)

// IsUniqueViolation matches 23505 on the named constraint. An empty
// constraint name on the error is accepted.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return pgErr.ConstraintName == "" || pgErr.ConstraintName == constraint
}

// isInvalidUUID reports a malformed uuid literal; callers treat it as not found.
func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
