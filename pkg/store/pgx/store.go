// Package pgx implements store.Store on Postgres with pgvector.
package pgx

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBStore persists runs and code artifacts through a pgx pool. The pool
// is expected to have pgvector types registered.
type DBStore struct {
	pool *pgxpool.Pool
}

// New creates a DBStore on an existing pool.
func New(pool *pgxpool.Pool) *DBStore {
	return &DBStore{pool: pool}
}
