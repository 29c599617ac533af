// Package store is the hand-written repository layer against
// database/sql + pgx standing in for the generated ent client (see
// DESIGN.md's "ent schema kept, ent client not generated"). Method shapes
// mirror what ent would have generated (Get, Create, Query-by-filter), but
// every query here is plain parameterized SQL against the schema declared
// in ent/schema and created by pkg/database/migrations.
package store

import (
	"context"
	"database/sql"
)

// Store bundles every entity repository behind one handle, sharing a
// single connection pool across all of them.
type Store struct {
	db *sql.DB
}

// New builds a Store over an already-open, migrated connection pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by *sql.DB, *sql.Tx, and *Store itself, letting
// repository methods run against a pooled connection, an explicit
// transaction, or the Store handle interchangeably without duplicating
// logic.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// QueryContext, QueryRowContext, and ExecContext delegate to the
// underlying pool so *Store satisfies querier, letting callers outside
// the package pass either a *sql.Tx or the bare Store to methods like
// SetStageTaskID.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func (s *Store) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

// WithTx runs fn inside a database transaction, committing on success and
// rolling back on error or panic. Callers use this for the orchestrator's
// "read a small snapshot" and "single batched write" steps — never around
// network I/O (spec's no-transaction-across-I/O rule).
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}
