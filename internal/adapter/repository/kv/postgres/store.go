// Package postgres provides a kv.Store backed by a single PostgreSQL table.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/escrowledger/internal/adapter/repository/kv"
)

// Store implements kv.Store over the ledger_kv table. Transient failures
// (deadlocks, serialization) are retried with exponential backoff.
type Store struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewStore creates a new Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, retrier: NewRetrier()}
}

// Get returns the value for key or kv.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.retrier.Retry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `SELECT value FROM ledger_kv WHERE key = $1`, key)
		if err := row.Scan(&value); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return kv.ErrKeyNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put upserts the value under key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return s.retrier.Retry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO ledger_kv (key, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
			key, value)
		return err
	})
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.retrier.Retry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `DELETE FROM ledger_kv WHERE key = $1`, key)
		return err
	})
}

// List returns the keys under prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.retrier.Retry(ctx, func() error {
		rows, err := s.pool.Query(ctx,
			`SELECT key FROM ledger_kv WHERE key LIKE $1 || '%' ORDER BY key`, prefix)
		if err != nil {
			return err
		}
		defer rows.Close()

		keys = keys[:0]
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				return err
			}
			keys = append(keys, k)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
