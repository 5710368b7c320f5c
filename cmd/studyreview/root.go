// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/studyreview/studyreview/internal/config"
	"github.com/studyreview/studyreview/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the studyreview CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmdWithDeps(nil)
}

func newRootCmdWithDeps(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "studyreview",
		Short: "StudyReview student authentication service",
		Long: `StudyReview registers student accounts, authenticates their credentials
and validates the signed session cookies it issues.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/studyreview/config.yaml)")
	flags.String("env", "", "environment: development, production or test")
	flags.String("log-format", "", "log format (json or text)")
	flags.String("log-level", "", "log level (debug, info, warn or error)")
	flags.String("database-url", "", "PostgreSQL connection URL")

	cmd.AddCommand(NewServeCmd(deps))
	cmd.AddCommand(NewMigrateCmd(deps))
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewTokenCmd())
	cmd.AddCommand(NewCertCmd())

	return cmd
}

// loadConfig layers the config sources for cmd, including the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Loaded, error) {
	return config.Load(config.LoadOptions{File: configFile, Flags: cmd.Flags()})
}

// newLogger builds the process logger from cfg.
func newLogger(cmd *cobra.Command, cfg config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Service:     "studyreview",
		Version:     version,
		Environment: cfg.Environment,
		Format:      cfg.LogFormat,
		Level:       cfg.LogLevel,
		Writer:      cmd.ErrOrStderr(),
	})
}
