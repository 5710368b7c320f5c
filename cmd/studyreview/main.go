// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

// Package main is the entry point for the studyreview service and its operator tooling.
package main

import (
	"fmt"
	"os"

	"github.com/samber/oops"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		if public := oops.GetPublic(err, ""); public != "" {
			fmt.Fprintln(os.Stderr, "hint:", public)
		}
		os.Exit(1)
	}
}
