// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/studyreview/studyreview/internal/tls"
	"github.com/studyreview/studyreview/internal/xdg"
)

// NewCertCmd creates the cert subcommand.
func NewCertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Manage development TLS certificates",
	}
	cmd.AddCommand(newCertGenerateCmd())
	return cmd
}

func newCertGenerateCmd() *cobra.Command {
	var (
		dir   string
		hosts []string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Issue a development server certificate",
		Long: `Issue a server certificate signed by a local development CA.
The CA is created on first use and reused afterwards, so a browser or client
that trusts root-ca.crt keeps trusting newly issued server certificates.
Point server.tls_cert_file and server.tls_key_file at the printed paths.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				var err error
				if dir, err = xdg.CertsDir(); err != nil {
					return err
				}
			}
			certFile, keyFile, err := tls.EnsureDevCertificates(dir, hosts)
			if err != nil {
				return err
			}
			cmd.Printf("tls_cert_file: %s\n", certFile)
			cmd.Printf("tls_key_file: %s\n", keyFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default: XDG_CONFIG_HOME/studyreview/certs)")
	cmd.Flags().StringSliceVar(&hosts, "host", nil, "host name or IP the certificate covers (repeatable, default localhost)")
	return cmd
}
