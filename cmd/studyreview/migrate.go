// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
// Running it without a subcommand applies all pending migrations.
func NewMigrateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Manage the PostgreSQL schema holding students and study programs.
Without a subcommand, all pending migrations are applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				return migrateUp(cmd, m, 0)
			})
		},
	}

	cmd.AddCommand(newMigrateUpCmd(deps))
	cmd.AddCommand(newMigrateDownCmd(deps))
	cmd.AddCommand(newMigrateStatusCmd(deps))
	cmd.AddCommand(newMigrateVersionCmd(deps))
	cmd.AddCommand(newMigrateForceCmd(deps))

	return cmd
}

func newMigrateUpCmd(deps *Deps) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				return migrateUp(cmd, m, steps)
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "apply at most N migrations (0 applies all)")
	return cmd
}

func migrateUp(cmd *cobra.Command, m Migrator, steps int) error {
	if steps < 0 {
		return oops.Code("INVALID_STEPS").Errorf("--steps must be non-negative, got %d", steps)
	}
	cmd.Println("Running migrations...")
	var err error
	if steps > 0 {
		err = m.Steps(steps)
	} else {
		err = m.Up()
	}
	if err != nil {
		return err
	}
	return printVersion(cmd, m, "Migrations completed successfully")
}

func newMigrateDownCmd(deps *Deps) *cobra.Command {
	var (
		steps   int
		confirm bool
	)
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long: `Roll back migrations. Without --steps every migration is rolled back,
which drops all student data. Requires --yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 0 {
				return oops.Code("INVALID_STEPS").Errorf("--steps must be non-negative, got %d", steps)
			}
			if !confirm {
				return oops.Code("CONFIRMATION_REQUIRED").
					Public("re-run with --yes to confirm the rollback").
					Errorf("rolling back migrations requires --yes")
			}
			return withMigrator(cmd, deps, func(m Migrator) error {
				cmd.Println("Rolling back migrations...")
				var err error
				if steps > 0 {
					err = m.Steps(-steps)
				} else {
					err = m.Down()
				}
				if err != nil {
					return err
				}
				return printVersion(cmd, m, "Rollback completed successfully")
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "roll back at most N migrations (0 rolls back all)")
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the rollback")
	return cmd
}

func newMigrateStatusCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				status, err := m.Status()
				if err != nil {
					return err
				}
				name := status.Name
				if name == "" {
					name = "none"
				}
				cmd.Printf("Schema version: %d (%s)\n", status.Version, name)
				cmd.Printf("Dirty: %t\n", status.Dirty)
				cmd.Printf("Applied: %s\n", formatVersions(status.Applied))
				cmd.Printf("Pending: %s\n", formatVersions(status.Pending))
				return nil
			})
		},
	}
}

func newMigrateVersionCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				return printVersion(cmd, m, "")
			})
		},
	}
}

func newMigrateForceCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Mark a schema version as applied without running it",
		Long: `Record the given version as applied and clear the dirty flag.
Only use this after repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, deps, func(m Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced schema version to %d\n", version)
				return nil
			})
		},
	}
}

// parseForceVersion parses the version argument of migrate force.
func parseForceVersion(arg string) (int, error) {
	version, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").
			With("input", arg).
			Errorf("version must be an integer, got %q", arg)
	}
	return version, nil
}

// withMigrator opens a migrator for the configured database, runs fn and closes it.
func withMigrator(cmd *cobra.Command, deps *Deps, fn func(Migrator) error) (err error) {
	d := deps.withDefaults()

	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := loaded.RequireDatabase(); err != nil {
		return err
	}
	logger, err := newLogger(cmd, loaded.Config)
	if err != nil {
		return err
	}

	m, err := d.NewMigrator(loaded.Database.URL, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			if err == nil {
				err = closeErr
			} else {
				logger.Warn("failed to close migrator", "error", closeErr)
			}
		}
	}()

	return fn(m)
}

func printVersion(cmd *cobra.Command, m Migrator, headline string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if headline != "" {
		cmd.Println(headline)
	}
	if dirty {
		cmd.Printf("Schema version: %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("Schema version: %d\n", version)
	return nil
}

func formatVersions(versions []uint) string {
	if len(versions) == 0 {
		return "none"
	}
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
