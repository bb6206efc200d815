// Package config loads reqform client configuration from
// ~/.reqform/config.yaml with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all reqform client settings.
type Config struct {
	// API configures the remote portal gateway.
	API APIConfig `yaml:"api"`

	// UI configures the terminal interface.
	UI UIConfig `yaml:"ui"`

	// Logging configures the file logger.
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the gateway HTTP client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"` // per-request timeout, e.g. "15s"
	Retries int    `yaml:"retries"` // max attempts for idempotent GETs
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	Theme string `yaml:"theme"` // "light", "dark" or "" for auto-detect
}

// LoggingConfig configures the file logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug/info/warn/error
	Dir   string `yaml:"dir"`   // defaults to <config dir>/logs
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api",
			Timeout: "15s",
			Retries: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the reqform configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".reqform"), nil
}

// File returns the full path to the config file.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from path. A missing file yields defaults; a
// malformed file is an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads from the standard location.
func LoadDefault() (*Config, error) {
	path, err := File()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the configuration to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("REQFORM_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if t := os.Getenv("REQFORM_API_TIMEOUT"); t != "" {
		c.API.Timeout = t
	}
	if theme := os.Getenv("REQFORM_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if lvl := os.Getenv("REQFORM_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if _, err := c.RequestTimeout(); err != nil {
		return fmt.Errorf("api.timeout: %w", err)
	}
	if c.API.Retries < 1 {
		c.API.Retries = 1
	}
	return nil
}

// RequestTimeout parses the configured per-request timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.API.Timeout == "" {
		return 15 * time.Second, nil
	}
	return time.ParseDuration(c.API.Timeout)
}

// LogDir returns the resolved log directory.
func (c *Config) LogDir() (string, error) {
	if c.Logging.Dir != "" {
		return c.Logging.Dir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}
