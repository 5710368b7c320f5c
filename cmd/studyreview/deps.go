// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/jackc/pgx/v5"

	"github.com/studyreview/studyreview/internal/observability"
	"github.com/studyreview/studyreview/internal/store"
)

// Deps contains injectable dependencies for the serve and migrate commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// Connect opens the database pool.
	// Default: store.Connect
	Connect func(ctx context.Context, opts store.ConnectOptions) (Database, error)

	// NewMigrator creates a schema migrator.
	// Default: store.NewMigrator
	NewMigrator func(databaseURL string, logger *slog.Logger) (Migrator, error)

	// NewObservabilityServer creates the metrics and health probe server.
	// Default: observability.NewServer
	NewObservabilityServer func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// Listen opens the API listener.
	// Default: net.Listen
	Listen func(network, address string) (net.Listener, error)
}

// Database wraps the methods used from *pgxpool.Pool.
type Database interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Migrator wraps the methods used from *store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// ObservabilityServer wraps the methods used from *observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// withDefaults returns a copy of d with nil fields replaced by the default implementations.
func (d *Deps) withDefaults() Deps {
	var out Deps
	if d != nil {
		out = *d
	}
	if out.Connect == nil {
		out.Connect = func(ctx context.Context, opts store.ConnectOptions) (Database, error) {
			return store.Connect(ctx, opts)
		}
	}
	if out.NewMigrator == nil {
		out.NewMigrator = func(databaseURL string, logger *slog.Logger) (Migrator, error) {
			return store.NewMigrator(databaseURL, logger)
		}
	}
	if out.NewObservabilityServer == nil {
		out.NewObservabilityServer = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, observability.WithServerLogger(logger))
		}
	}
	if out.Listen == nil {
		out.Listen = net.Listen
	}
	return out
}
