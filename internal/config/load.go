// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/studyreview/studyreview/internal/xdg"
)

// EnvPrefix marks environment variables that map onto config keys.
// STUDYREVIEW_AUTH__TOKEN_TTL sets auth.token_ttl.
const EnvPrefix = "STUDYREVIEW_"

// envAliases are the conventional unprefixed variables the service honors.
var envAliases = map[string]string{
	"SECRET_KEY":   "auth.secret_key",
	"DATABASE_URL": "database.url",
	"APP_ENV":      "environment",
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"env":          "environment",
	"log-format":   "log_format",
	"log-level":    "log_level",
	"http-addr":    "server.http_addr",
	"metrics-addr": "server.metrics_addr",
	"database-url": "database.url",
	"tls-cert":     "server.tls_cert_file",
	"tls-key":      "server.tls_key_file",
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// File is an explicit config file path. It must exist when set.
	// When empty, the XDG config file is used if present.
	File string
	// Flags contributes flags the user set explicitly. May be nil.
	Flags *pflag.FlagSet
}

// Loaded is the result of Load.
type Loaded struct {
	Config
	// File is the config file that was read, or "" when none was.
	File string
}

// Load layers defaults, the config file, the environment and flags, in that
// order of increasing precedence, and validates the result.
func Load(opts LoadOptions) (*Loaded, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Default().Flatten(), "."), nil); err != nil {
		return nil, oops.In("config").Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	path, err := resolveFile(opts.File)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envKey), nil); err != nil {
		return nil, oops.In("config").Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.In("config").Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.In("config").Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, oops.With("file", path).Wrap(err)
	}

	return &Loaded{Config: cfg, File: path}, nil
}

func resolveFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", oops.In("config").Code("CONFIG_FILE_NOT_FOUND").With("file", explicit).Wrap(err)
		}
		return explicit, nil
	}
	path, found, err := xdg.FindConfigFile()
	if err != nil {
		return "", oops.In("config").Code("CONFIG_LOAD_FAILED").Wrap(err)
	}
	if !found {
		return "", nil
	}
	return path, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return oops.In("config").Code("CONFIG_LOAD_FAILED").With("file", path).Wrap(err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := ValidateSchema(data); err != nil {
		return oops.In("config").Code("CONFIG_SCHEMA_INVALID").
			With("file", path).
			Public(FormatSchemaError(err)).
			Wrap(err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.In("config").Code("CONFIG_LOAD_FAILED").With("file", path).Wrap(err)
	}
	return nil
}

// envKey maps an environment variable onto a config key. Variables that map
// to nothing, and empty values, return an empty key and are skipped.
func envKey(name, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	if key, ok := envAliases[name]; ok {
		return key, value
	}
	rest, ok := strings.CutPrefix(name, EnvPrefix)
	if !ok || rest == "" {
		return "", nil
	}
	return strings.ReplaceAll(strings.ToLower(rest), "__", "."), value
}
