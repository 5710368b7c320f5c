// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

// Package store owns the PostgreSQL connection pool and the schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Defaults applied by Connect when the corresponding option is zero.
const (
	DefaultConnectAttempts = 5
	DefaultRetryBaseDelay  = 500 * time.Millisecond
	DefaultMaxRetryDelay   = 10 * time.Second
)

// ConnectOptions configures Connect.
type ConnectOptions struct {
	URL      string
	MaxConns int32
	// Attempts is the total number of connection attempts, including the first.
	Attempts  uint64
	BaseDelay time.Duration
	Logger    *slog.Logger
}

// Connect creates a pool and waits until the database answers a ping.
// Failed pings are retried with exponential backoff; the pool is closed if every attempt fails.
func Connect(ctx context.Context, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("operation", "parse database url").
			Wrap(err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	if err := retry.Do(ctx, connectBackoff(opts), pingOnce(pool, opts.Logger)); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("host", cfg.ConnConfig.Host).
			With("database", cfg.ConnConfig.Database).
			Wrap(err)
	}
	return pool, nil
}

func connectBackoff(opts ConnectOptions) retry.Backoff {
	attempts := opts.Attempts
	if attempts == 0 {
		attempts = DefaultConnectAttempts
	}
	base := opts.BaseDelay
	if base <= 0 {
		base = DefaultRetryBaseDelay
	}
	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(DefaultMaxRetryDelay, b)
	return retry.WithMaxRetries(attempts-1, b)
}

func pingOnce(pool *pgxpool.Pool, logger *slog.Logger) retry.RetryFunc {
	if logger == nil {
		logger = slog.Default()
	}
	attempt := 0
	return func(ctx context.Context) error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "database not reachable", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck returns a probe that reports whether the database answers within timeout.
func ReadinessCheck(db Pinger, timeout time.Duration) func() bool {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return db.Ping(ctx) == nil
	}
}
