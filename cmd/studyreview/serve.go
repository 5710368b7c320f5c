// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package main

import (
	"context"
	cryptotls "crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/studyreview/studyreview/internal/auth"
	"github.com/studyreview/studyreview/internal/auth/postgres"
	"github.com/studyreview/studyreview/internal/config"
	"github.com/studyreview/studyreview/internal/httpapi"
	"github.com/studyreview/studyreview/internal/notify"
	"github.com/studyreview/studyreview/internal/store"
	"github.com/studyreview/studyreview/internal/tls"
)

const (
	shutdownTimeout  = 5 * time.Second
	readinessTimeout = 2 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API",
		Long: `Start the HTTP API serving student registration, login and session
validation, plus the metrics and health probe server when metrics_addr is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, deps)
		},
	}

	cmd.Flags().String("http-addr", "", "auth API listen address (default :8080)")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address")
	cmd.Flags().String("tls-cert", "", "PEM certificate file; serves HTTPS together with --tls-key")
	cmd.Flags().String("tls-key", "", "PEM private key file")

	return cmd
}

// runServe starts the API and blocks until ctx is done, a signal arrives or a server fails.
func runServe(ctx context.Context, cmd *cobra.Command, deps *Deps) error {
	d := deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	if err := cfg.RequireSecret(); err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	logger.Info("starting studyreview",
		"environment", cfg.Environment,
		"http_addr", cfg.Server.HTTPAddr,
		"config_file", loaded.File,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := d.Connect(ctx, store.ConnectOptions{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		Attempts: cfg.Database.ConnectAttempts,
		Logger:   logger,
	})
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()
	logger.Info("connected to database")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		obsServer ObservabilityServer
		recorder  auth.OutcomeRecorder
		apiOpts   = []httpapi.Option{httpapi.WithLogger(logger)}
	)
	if cfg.Server.MetricsAddr != "" {
		obsServer = d.NewObservabilityServer(cfg.Server.MetricsAddr, store.ReadinessCheck(db, readinessTimeout), logger)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
		logger.Info("observability server started", "addr", obsServer.Addr())

		if m := obsServer.Metrics(); m != nil {
			recorder = m
			apiOpts = append(apiOpts, httpapi.WithObserver(m))
		}
	}

	svc, err := newService(cfg, db, logger, recorder)
	if err != nil {
		stopObservability(obsServer, logger)
		return err
	}

	var tlsConfig *cryptotls.Config
	if cfg.Server.TLSEnabled() {
		if tlsConfig, err = tls.LoadServerTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile); err != nil {
			stopObservability(obsServer, logger)
			return err
		}
	}

	listener, err := d.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("LISTEN_FAILED").With("addr", cfg.Server.HTTPAddr).Wrap(err)
	}

	srv := &http.Server{
		Handler:           httpapi.New(svc, apiOpts...),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		TLSConfig:         tlsConfig,
	}

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if tlsConfig != nil {
			err = srv.ServeTLS(listener, "", "")
		} else {
			err = srv.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	scheme := "http"
	if tlsConfig != nil {
		scheme = "https"
	}
	cmd.Printf("StudyReview listening on %s://%s\n", scheme, listener.Addr())
	logger.Info("studyreview ready", "http_addr", listener.Addr().String(), "tls", tlsConfig != nil)

	var runErr error
	select {
	case err := <-serveErr:
		runErr = oops.Code("SERVE_FAILED").With("addr", listener.Addr().String()).Wrap(err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("shutdown complete")
	return runErr
}

// newService wires the auth service onto db.
func newService(cfg config.Config, db Database, logger *slog.Logger, recorder auth.OutcomeRecorder) (*auth.Service, error) {
	tokens, err := newTokenIssuer(cfg)
	if err != nil {
		return nil, err
	}

	opts := []auth.Option{
		auth.WithLogger(logger),
		auth.WithValidator(auth.NewValidator(cfg.Auth.MinPasswordLength)),
		auth.WithNotifier(notify.NewLogNotifier(logger)),
	}
	if recorder != nil {
		opts = append(opts, auth.WithRecorder(recorder))
	}

	return auth.NewService(
		postgres.NewStudentRepository(db),
		auth.NewBoundedHasher(auth.NewArgon2idHasher(), cfg.Auth.HashConcurrency),
		tokens,
		auth.NewCookieEncoder(cfg.Development()),
		opts...,
	)
}

func stopObservability(server ObservabilityServer, logger *slog.Logger) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when errCh delivers a non-nil error.
// It returns when errCh closes, delivers a value, or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
