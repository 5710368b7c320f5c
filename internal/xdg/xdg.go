// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

// Package xdg resolves the XDG Base Directory locations used by studyreview.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const (
	appName        = "studyreview"
	configFileName = "config.yaml"
)

// ConfigDir returns the XDG config directory for studyreview.
// Checks XDG_CONFIG_HOME first, falls back to $HOME/.config.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return "", oops.Code("XDG_NO_HOME").Errorf("neither XDG_CONFIG_HOME nor HOME is set")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName), nil
}

// ConfigFile returns the path of the default config file.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// CertsDir returns the directory holding generated development certificates.
func CertsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "certs"), nil
}

// FindConfigFile returns the default config file path if the file exists.
// found is false when the file is absent or the config directory cannot be resolved.
func FindConfigFile() (path string, found bool, err error) {
	path, err = ConfigFile()
	if err != nil {
		return "", false, nil
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return path, false, nil
	case err != nil:
		return path, false, oops.Code("XDG_STAT_FAILED").With("path", path).Wrap(err)
	case info.IsDir():
		return path, false, oops.Code("XDG_NOT_A_FILE").With("path", path).Errorf("config path is a directory")
	}
	return path, true, nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("XDG_MKDIR_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
