// Package db holds the minimal database abstraction shared by every domain
// store: a DBTX interface satisfied by both *pgxpool.Pool and pgx.Tx, so
// store methods can run unchanged whether they are given a pool connection
// or a transaction handle.
package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool / pgx.Tx that domain stores depend on.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BeginFunc is satisfied by *pgxpool.Pool. Transactional operations accept it
// directly rather than widening DBTX, since only a pool (not a Tx) can begin
// a new transaction.
type BeginFunc interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IsUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505), the signal used throughout the ledger and registry to
// detect and retry racing concurrent writers.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
