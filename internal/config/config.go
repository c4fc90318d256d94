// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

// Package config loads the trailhead configuration from defaults, an
// optional YAML file, TRAILHEAD_ environment variables, and command-line
// flags, in that order of precedence.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// envPrefix namespaces the environment variables read by Load.
const envPrefix = "TRAILHEAD_"

// Config is the resolved trailhead configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int32  `koanf:"max_conns"`
	MinConns int32  `koanf:"min_conns"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig configures the observability HTTP server.
// An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

func defaults() map[string]any {
	return map[string]any{
		"database.max_conns": 10,
		"database.min_conns": 2,
		"log.format":         "json",
		"log.level":          "info",
		"metrics.addr":       "127.0.0.1:9100",
	}
}

// Load resolves the configuration. path is an optional YAML file; flags is
// an optional pflag set whose changed flags win over everything else.
// Flag names use dashes for dots (database-url → database.url).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	// TRAILHEAD_DATABASE_MAX_CONNS → database.max_conns. Only the first
	// underscore separates the section from the key.
	envProvider := env.Provider(envPrefix, ".", func(key string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(key, envPrefix)), "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "."), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid values. The database URL is
// not required here; commands that need it check for it themselves.
func (c *Config) Validate() error {
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.Log.Format).
			Errorf("log format must be json or text")
	}
	if c.Database.MaxConns <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("max_conns", c.Database.MaxConns).
			Errorf("database max_conns must be positive")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return oops.Code("CONFIG_INVALID").
			With("min_conns", c.Database.MinConns).
			Errorf("database min_conns must be between 0 and max_conns")
	}
	return nil
}
