// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package main

import (
	"bytes"
	"context"
	"testing"
)

// testSecret is long enough for the production secret check.
const testSecret = "0123456789abcdef0123456789abcdef"

// isolateEnv points XDG_CONFIG_HOME at a temp dir and clears every
// variable the config loader reads.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, name := range []string{
		"SECRET_KEY",
		"DATABASE_URL",
		"APP_ENV",
		"STUDYREVIEW_ENVIRONMENT",
		"STUDYREVIEW_LOG_FORMAT",
		"STUDYREVIEW_LOG_LEVEL",
		"STUDYREVIEW_SERVER__HTTP_ADDR",
		"STUDYREVIEW_SERVER__METRICS_ADDR",
		"STUDYREVIEW_AUTH__SECRET_KEY",
		"STUDYREVIEW_AUTH__TOKEN_TTL",
		"STUDYREVIEW_DATABASE__URL",
	} {
		t.Setenv(name, "")
	}
	return dir
}

// execute runs the root command with args and returns what it printed to stdout.
// Log output goes to a separate buffer.
func execute(t *testing.T, deps *Deps, args ...string) (string, error) {
	t.Helper()
	return executeContext(context.Background(), t, deps, args...)
}

func executeContext(ctx context.Context, t *testing.T, deps *Deps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmdWithDeps(deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), err
}
