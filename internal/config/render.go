// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/studyreview/studyreview/internal/xdg"
)

// YAML renders c in the config file layout. Callers printing it should
// render Redacted() instead.
func (c Config) YAML() ([]byte, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(c.Flatten(), "."), nil); err != nil {
		return nil, oops.In("config").Code("CONFIG_RENDER_FAILED").Wrap(err)
	}
	out, err := yaml.Marshal(k.Raw())
	if err != nil {
		return nil, oops.In("config").Code("CONFIG_RENDER_FAILED").Wrap(err)
	}
	return out, nil
}

// WriteFile writes c to path as YAML, creating parent directories.
// An existing file is only replaced when overwrite is set.
func WriteFile(c Config, path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return oops.In("config").Code("CONFIG_FILE_EXISTS").With("file", path).Errorf("config file already exists")
		}
	}
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return oops.In("config").Code("CONFIG_WRITE_FAILED").With("file", path).Wrap(err)
	}
	return nil
}
