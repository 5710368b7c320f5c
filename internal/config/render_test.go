// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyreview/studyreview/pkg/errutil"
)

func TestConfig_YAML_PassesSchema(t *testing.T) {
	out, err := Default().YAML()
	require.NoError(t, err)

	assert.Contains(t, string(out), "token_ttl: 1h0m0s")
	require.NoError(t, ValidateSchema(out))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.LogFormat = "text"
	require.NoError(t, WriteFile(cfg, path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(LoadOptions{File: path})
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded.Config)
}

func TestWriteFile_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_format: json\n"), 0o600))

	err := WriteFile(Default(), path, false)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_EXISTS")

	require.NoError(t, WriteFile(Default(), path, true))
}
