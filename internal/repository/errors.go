package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not_found")

// ErrInsufficientCredits is returned when a guarded debit would drive a
// pool's remaining credits negative. The guard runs server-side
// (WHERE credits_remaining >= amount), so two concurrent debits can never
// overspend a pool.
var ErrInsufficientCredits = errors.New("insufficient_credits")

// ErrStorageUnavailable marks transient database failures. It is the only
// error class the caller may retry.
var ErrStorageUnavailable = errors.New("storage_unavailable")

// IsUnavailable reports whether err is a transport-level database failure
// rather than a data-shaped one. A *pgconn.PgError means the server received
// and rejected the statement; anything else that is not a no-rows result is
// treated as the database being unreachable.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInsufficientCredits) {
		return false
	}
	var pgErr *pgconn.PgError
	return !errors.As(err, &pgErr)
}
