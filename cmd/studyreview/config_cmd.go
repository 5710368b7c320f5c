// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/studyreview/studyreview/internal/config"
	"github.com/studyreview/studyreview/internal/xdg"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
		Long: `Print the effective configuration with secrets masked.
Use "config init" to write a default config file.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for config files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	})

	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out, err := loaded.Redacted().YAML()
	if err != nil {
		return err
	}
	if loaded.File != "" {
		cmd.Printf("# loaded from %s\n", loaded.File)
	}
	cmd.Print(string(out))
	return nil
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write the default configuration to --config, or to
XDG_CONFIG_HOME/studyreview/config.yaml when --config is not set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configFile
			if path == "" {
				var err error
				if path, err = xdg.ConfigFile(); err != nil {
					return err
				}
			}
			if err := config.WriteFile(config.Default(), path, force); err != nil {
				return err
			}
			cmd.Printf("Wrote default config to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
