// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

// Package config loads service configuration from defaults, an optional
// YAML file and command-line flags, in that order of precedence.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/deskhive/deskhive/internal/auth"
)

// Consumption policy names accepted in configuration.
const (
	PolicyConsume = "consume"
	PolicyReplay  = "replay"
)

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// WebConfig holds the HTTP API listener settings.
type WebConfig struct {
	Addr string `koanf:"addr"`

	// InviteSecret signs first-time setup links. When empty, the setup
	// endpoints are not served.
	InviteSecret string `koanf:"invite_secret"`
}

// ObservabilityConfig holds the metrics and health probe listener settings.
type ObservabilityConfig struct {
	Addr string `koanf:"addr"`
}

// SessionConfig holds token lifecycle settings.
type SessionConfig struct {
	// Timeout is the validity window stamped on every issued token.
	Timeout time.Duration `koanf:"timeout"`

	// ConsumptionPolicy is what happens to a reset token after a
	// successful password commit: "consume" or "replay".
	ConsumptionPolicy string `koanf:"consumption_policy"`

	// SweepInterval is how often expired tokens are deleted.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `koanf:"format"` // "json" or "text"
}

// Config is the root service configuration.
type Config struct {
	Database      DatabaseConfig      `koanf:"database"`
	Web           WebConfig           `koanf:"web"`
	Observability ObservabilityConfig `koanf:"observability"`
	Session       SessionConfig       `koanf:"session"`
	Log           LogConfig           `koanf:"log"`
}

// defaults are applied before any file or flag values.
var defaults = map[string]any{
	"web.addr":                   ":8080",
	"observability.addr":         "127.0.0.1:9100",
	"session.timeout":            "30m",
	"session.consumption_policy": PolicyConsume,
	"session.sweep_interval":     "5m",
	"log.format":                 "json",
}

// Load builds a Config from defaults, the YAML file at path (optional, may
// be empty) and the given flag set (optional, may be nil). Flags win over
// the file, the file wins over defaults.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if os.IsNotExist(err) {
				return nil, oops.Code("CONFIG_FILE_NOT_FOUND").With("path", path).Wrap(err)
			}
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
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

// Validate checks the configuration for values that cannot work at runtime.
// The database URL is checked by the commands that need it.
func (c *Config) Validate() error {
	if c.Session.Timeout <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "session.timeout").
			Errorf("session timeout must be positive, got %s", c.Session.Timeout)
	}
	if c.Session.SweepInterval <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "session.sweep_interval").
			Errorf("sweep interval must be positive, got %s", c.Session.SweepInterval)
	}
	switch c.Session.ConsumptionPolicy {
	case PolicyConsume, PolicyReplay:
	default:
		return oops.Code("CONFIG_INVALID").
			With("key", "session.consumption_policy").
			Errorf("consumption policy must be %q or %q, got %q", PolicyConsume, PolicyReplay, c.Session.ConsumptionPolicy)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").
			With("key", "log.format").
			Errorf("log format must be \"json\" or \"text\", got %q", c.Log.Format)
	}
	return nil
}

// Policy maps the configured consumption policy name to its auth value.
// Validate guarantees the name is one of the accepted constants.
func (c *Config) Policy() auth.ConsumptionPolicy {
	if c.Session.ConsumptionPolicy == PolicyReplay {
		return auth.ReplayUntilExpiry
	}
	return auth.ConsumeOnUse
}
