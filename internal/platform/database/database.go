// Package database provides PostgreSQL connection management via pgx.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Options configures the connection pool.
type Options struct {
	URL      string
	MaxConns int
	MinConns int
}

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// schema holds the tables the progress service owns.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS kv_entries (
	   namespace  TEXT        NOT NULL,
	   key        TEXT        NOT NULL,
	   value      TEXT        NOT NULL,
	   updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	   PRIMARY KEY (namespace, key)
	 )`,
	`CREATE TABLE IF NOT EXISTS progress_events (
	   id          BIGSERIAL   PRIMARY KEY,
	   namespace   TEXT        NOT NULL,
	   event_type  TEXT        NOT NULL,
	   question_id INTEGER,
	   data        JSONB       NOT NULL DEFAULT '{}'::jsonb,
	   created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	 )`,
	`CREATE INDEX IF NOT EXISTS idx_progress_events_ns_created
	   ON progress_events (namespace, created_at)`,
}

// ParseURL validates a PostgreSQL connection URL.
func ParseURL(url string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	return cfg, nil
}

// New creates a connection pool, pings it, and applies the schema.
func New(ctx context.Context, opts Options) (*DB, error) {
	cfg, err := ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		cfg.MinConns = int32(opts.MinConns)
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{Pool: pool}
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the progress tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
