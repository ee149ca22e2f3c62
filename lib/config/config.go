// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable Load reads the config path
// from.
const EnvVar = "TABKEEPER_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for a laptop at the counter while testing.
	Development Environment = "development"
	// Staging is for a rehearsal floor.
	Staging Environment = "staging"
	// Production is the restaurant floor.
	Production Environment = "production"
)

// Config is the master configuration for tabkeeperd.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Server configures the TCP listener and connections.
	Server ServerConfig `yaml:"server"`

	// Menu configures where the menu is read from.
	Menu MenuConfig `yaml:"menu"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment. Zero values in an override leave the base value alone.
type ConfigOverrides struct {
	Server *ServerConfig `yaml:"server,omitempty"`
	Menu   *MenuConfig   `yaml:"menu,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
}

// ServerConfig configures the TCP listener.
type ServerConfig struct {
	// ListenAddress is the TCP address to bind.
	// Default: :8888
	ListenAddress string `yaml:"listen_address"`

	// IdleTimeout closes a terminal connection that sends nothing for
	// this long. "0" disables it.
	// Default: 5m
	IdleTimeout string `yaml:"idle_timeout"`

	// WriteTimeout bounds writing one response.
	// Default: 10s
	WriteTimeout string `yaml:"write_timeout"`

	// MaxConnections caps simultaneous terminal connections. 0 means
	// no cap.
	// Default: 64
	MaxConnections int `yaml:"max_connections"`

	// MaxFrameSize bounds the length of one request frame in bytes.
	// Default: 1048576
	MaxFrameSize int `yaml:"max_frame_size"`
}

// MenuConfig selects the menu source.
type MenuConfig struct {
	// File is the menu file. A missing file is created with the house
	// menu. Ignored when PostgresURL is set.
	// Default: menu.txt
	File string `yaml:"file"`

	// PostgresURL, when set, reads the menu from the menu_items table
	// of this database instead of File.
	PostgresURL string `yaml:"postgres_url"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is json or text.
	// Default: json
	Format string `yaml:"format"`
}

// Default returns the default configuration. It is complete on its
// own; a config file only needs the fields it changes.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			ListenAddress:  ":8888",
			IdleTimeout:    "5m",
			WriteTimeout:   "10s",
			MaxConnections: 64,
			MaxFrameSize:   1024 * 1024,
		},
		Menu: MenuConfig{
			File: "menu.txt",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from the file named by TABKEEPER_CONFIG, or
// returns Default when the variable is unset or empty.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, on top of
// Default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: machine-readable logs, no debug noise.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Log: &LogConfig{Format: "json"},
			}
			if c.Log.Level == "debug" {
				overrides.Log.Level = "info"
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Server != nil {
		if overrides.Server.ListenAddress != "" {
			c.Server.ListenAddress = overrides.Server.ListenAddress
		}
		if overrides.Server.IdleTimeout != "" {
			c.Server.IdleTimeout = overrides.Server.IdleTimeout
		}
		if overrides.Server.WriteTimeout != "" {
			c.Server.WriteTimeout = overrides.Server.WriteTimeout
		}
		if overrides.Server.MaxConnections != 0 {
			c.Server.MaxConnections = overrides.Server.MaxConnections
		}
		if overrides.Server.MaxFrameSize != 0 {
			c.Server.MaxFrameSize = overrides.Server.MaxFrameSize
		}
	}

	if overrides.Menu != nil {
		if overrides.Menu.File != "" {
			c.Menu.File = overrides.Menu.File
		}
		if overrides.Menu.PostgresURL != "" {
			c.Menu.PostgresURL = overrides.Menu.PostgresURL
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// menu fields.
func (c *Config) expandVariables() {
	c.Menu.File = expandVars(c.Menu.File)
	c.Menu.PostgresURL = expandVars(c.Menu.PostgresURL)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// process environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Server.ListenAddress == "" {
		errs = append(errs, errors.New("server.listen_address is required"))
	}
	if _, err := parseDuration(c.Server.IdleTimeout); err != nil {
		errs = append(errs, fmt.Errorf("server.idle_timeout: %w", err))
	}
	if _, err := parseDuration(c.Server.WriteTimeout); err != nil {
		errs = append(errs, fmt.Errorf("server.write_timeout: %w", err))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("server.max_connections must not be negative, got %d", c.Server.MaxConnections))
	}
	if c.Server.MaxFrameSize < 0 {
		errs = append(errs, fmt.Errorf("server.max_frame_size must not be negative, got %d", c.Server.MaxFrameSize))
	}

	if c.Menu.File == "" && c.Menu.PostgresURL == "" {
		errs = append(errs, errors.New("one of menu.file or menu.postgres_url is required"))
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", logFormats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// IdleTimeout returns server.idle_timeout as a duration. Call Validate
// first; an unparseable value yields zero.
func (c *Config) IdleTimeout() time.Duration {
	duration, _ := parseDuration(c.Server.IdleTimeout)
	return duration
}

// WriteTimeout returns server.write_timeout as a duration. Call
// Validate first; an unparseable value yields zero.
func (c *Config) WriteTimeout() time.Duration {
	duration, _ := parseDuration(c.Server.WriteTimeout)
	return duration
}

// LogLevel returns log.level as a slog level. Unknown values yield
// info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseDuration accepts Go duration syntax and treats "" and "0" as
// zero. Negative durations are rejected.
func parseDuration(value string) (time.Duration, error) {
	if value == "" || value == "0" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %s", value)
	}
	return duration, nil
}
