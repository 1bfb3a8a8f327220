// Package repository stores users and notes in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PoolOptions sizes the connection pool.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

// DefaultPoolOptions suit a single web instance.
var DefaultPoolOptions = PoolOptions{
	MaxConns:        10,
	MinConns:        2,
	MaxConnIdleTime: 5 * time.Minute,
}

// Repository runs queries against a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and verifies the connection. Zero fields in
// opts fall back to DefaultPoolOptions.
func New(ctx context.Context, databaseURL string, opts ...PoolOptions) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	o := DefaultPoolOptions
	if len(opts) > 0 {
		if opts[0].MaxConns > 0 {
			o.MaxConns = opts[0].MaxConns
		}
		if opts[0].MinConns > 0 {
			o.MinConns = opts[0].MinConns
		}
		if opts[0].MaxConnIdleTime > 0 {
			o.MaxConnIdleTime = opts[0].MaxConnIdleTime
		}
	}
	if o.MinConns > o.MaxConns {
		o.MinConns = o.MaxConns
	}
	config.MaxConns = o.MaxConns
	config.MinConns = o.MinConns
	config.MaxConnIdleTime = o.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases all pooled connections.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool exposes the pool to test helpers.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
