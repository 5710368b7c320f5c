// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

// Package config loads studyreview settings from defaults, a YAML file,
// the environment and command-line flags.
package config

import (
	"net/url"
	"slices"
	"time"

	"github.com/samber/oops"
)

// Environments recognized by the service. Cookies drop the Secure
// attribute only in development.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// MinProductionSecretLength is the shortest signing secret accepted in production.
const MinProductionSecretLength = 32

const redacted = "******"

// Config is the effective studyreview configuration.
type Config struct {
	Environment string         `koanf:"environment" jsonschema:"enum=development,enum=production,enum=test,description=Deployment environment"`
	LogFormat   string         `koanf:"log_format" jsonschema:"enum=json,enum=text"`
	LogLevel    string         `koanf:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Server      ServerConfig   `koanf:"server"`
	Database    DatabaseConfig `koanf:"database"`
	Auth        AuthConfig     `koanf:"auth"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	HTTPAddr          string        `koanf:"http_addr" jsonschema:"description=Listen address of the auth API"`
	MetricsAddr       string        `koanf:"metrics_addr" jsonschema:"description=Metrics and health probe address (empty disables)"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" jsonschema:"type=string,description=Go duration such as 10s"`
	TLSCertFile       string        `koanf:"tls_cert_file" jsonschema:"description=PEM certificate for HTTPS (requires tls_key_file)"`
	TLSKeyFile        string        `koanf:"tls_key_file" jsonschema:"description=PEM private key for HTTPS (requires tls_cert_file)"`
}

// TLSEnabled reports whether the API is served over HTTPS.
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL             string `koanf:"url" jsonschema:"description=PostgreSQL connection URL"`
	MaxConns        int32  `koanf:"max_conns" jsonschema:"minimum=0"`
	ConnectAttempts uint64 `koanf:"connect_attempts" jsonschema:"minimum=1"`
}

// AuthConfig configures hashing and session tokens.
type AuthConfig struct {
	SecretKey         string        `koanf:"secret_key" jsonschema:"description=HMAC secret used to sign session tokens"`
	TokenTTL          time.Duration `koanf:"token_ttl" jsonschema:"type=string,description=Go duration such as 1h"`
	MinPasswordLength int           `koanf:"min_password_length" jsonschema:"minimum=1"`
	HashConcurrency   int           `koanf:"hash_concurrency" jsonschema:"minimum=0,description=Concurrent password hashes (0 uses the CPU count)"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Environment: EnvProduction,
		LogFormat:   "json",
		LogLevel:    "info",
		Server: ServerConfig{
			HTTPAddr:          ":8080",
			MetricsAddr:       "127.0.0.1:9100",
			ReadHeaderTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			ConnectAttempts: 5,
		},
		Auth: AuthConfig{
			TokenTTL:          time.Hour,
			MinPasswordLength: 8,
		},
	}
}

// Development reports whether the service runs in the development environment.
func (c Config) Development() bool {
	return c.Environment == EnvDevelopment
}

// Validate checks value ranges and enumerations. Secrets and URLs that only some
// commands need are checked by RequireSecret and RequireDatabase.
func (c Config) Validate() error {
	if !slices.Contains([]string{EnvDevelopment, EnvProduction, EnvTest}, c.Environment) {
		return invalid("environment", c.Environment, "must be development, production or test")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid("log_format", c.LogFormat, "must be json or text")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return invalid("log_level", c.LogLevel, "must be debug, info, warn or error")
	}
	if c.Server.HTTPAddr == "" {
		return invalid("server.http_addr", c.Server.HTTPAddr, "is required")
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return invalid("server.tls_cert_file", c.Server.TLSCertFile, "and server.tls_key_file must be set together")
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		return invalid("server.read_header_timeout", c.Server.ReadHeaderTimeout, "must be positive")
	}
	if c.Database.MaxConns < 0 {
		return invalid("database.max_conns", c.Database.MaxConns, "must not be negative")
	}
	if c.Database.ConnectAttempts == 0 {
		return invalid("database.connect_attempts", c.Database.ConnectAttempts, "must be at least 1")
	}
	if c.Auth.TokenTTL <= 0 {
		return invalid("auth.token_ttl", c.Auth.TokenTTL, "must be positive")
	}
	if c.Auth.MinPasswordLength < 1 {
		return invalid("auth.min_password_length", c.Auth.MinPasswordLength, "must be at least 1")
	}
	if c.Auth.HashConcurrency < 0 {
		return invalid("auth.hash_concurrency", c.Auth.HashConcurrency, "must not be negative")
	}
	if c.Auth.SecretKey != "" && c.Environment == EnvProduction && len(c.Auth.SecretKey) < MinProductionSecretLength {
		return oops.In("config").Code("CONFIG_INVALID").
			With("key", "auth.secret_key").
			Errorf("auth.secret_key must be at least %d bytes in production", MinProductionSecretLength)
	}
	return nil
}

// RequireSecret fails when no token signing secret is configured.
func (c Config) RequireSecret() error {
	if c.Auth.SecretKey == "" {
		return oops.In("config").Code("CONFIG_INVALID").
			With("key", "auth.secret_key").
			Hint("set SECRET_KEY or auth.secret_key").
			Errorf("auth.secret_key is required")
	}
	return nil
}

// RequireDatabase fails when no database URL is configured.
func (c Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return oops.In("config").Code("CONFIG_INVALID").
			With("key", "database.url").
			Hint("set DATABASE_URL or database.url").
			Errorf("database.url is required")
	}
	return nil
}

func invalid(key string, value any, reason string) error {
	return oops.In("config").Code("CONFIG_INVALID").
		With("key", key).
		With("value", value).
		Errorf("%s %s", key, reason)
}

// Redacted returns a copy safe to print: the signing secret and the database
// password are masked.
func (c Config) Redacted() Config {
	out := c
	if out.Auth.SecretKey != "" {
		out.Auth.SecretKey = redacted
	}
	if u, err := url.Parse(out.Database.URL); err == nil && u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), redacted)
			out.Database.URL = u.String()
		}
	}
	return out
}

// Flatten returns the configuration as a flat map keyed by dotted koanf paths.
// Durations are rendered as Go duration strings.
func (c Config) Flatten() map[string]any {
	return map[string]any{
		"environment":                c.Environment,
		"log_format":                 c.LogFormat,
		"log_level":                  c.LogLevel,
		"server.http_addr":           c.Server.HTTPAddr,
		"server.metrics_addr":        c.Server.MetricsAddr,
		"server.read_header_timeout": c.Server.ReadHeaderTimeout.String(),
		"server.tls_cert_file":       c.Server.TLSCertFile,
		"server.tls_key_file":        c.Server.TLSKeyFile,
		"database.url":               c.Database.URL,
		"database.max_conns":         c.Database.MaxConns,
		"database.connect_attempts":  c.Database.ConnectAttempts,
		"auth.secret_key":            c.Auth.SecretKey,
		"auth.token_ttl":             c.Auth.TokenTTL.String(),
		"auth.min_password_length":   c.Auth.MinPasswordLength,
		"auth.hash_concurrency":      c.Auth.HashConcurrency,
	}
}
