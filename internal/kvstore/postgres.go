package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a Store backed by the kv_entries table in PostgreSQL.
type PostgresStore struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgresStore returns a store scoped to namespace. The kv_entries table
// is created by database.Migrate.
func NewPostgresStore(pool *pgxpool.Pool, namespace string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool, namespace: namespace}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE namespace = $1 AND key = $2`,
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO kv_entries (namespace, key, value, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (namespace, key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		s.namespace, key, value,
	); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`DELETE FROM kv_entries WHERE namespace = $1 AND key = $2`,
		s.namespace, key,
	); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
