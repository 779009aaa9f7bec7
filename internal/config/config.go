// Package config loads the omara client configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvAPIURL    = "OMARA_API_URL"
	EnvTokenFile = "OMARA_TOKEN_FILE"
)

// Config is the client configuration file.
type Config struct {
	APIURL         string `yaml:"api_url"`
	TokenFile      string `yaml:"token_file"`
	Debounce       string `yaml:"debounce"`
	RequestTimeout string `yaml:"request_timeout"`
	Debug          bool   `yaml:"debug"`
}

// Dir returns the omara config directory, $XDG_CONFIG_HOME/omara or the
// platform equivalent.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "omara")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:         "http://localhost:8080",
		TokenFile:      filepath.Join(Dir(), "token"),
		Debounce:       "300ms",
		RequestTimeout: "30s",
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvTokenFile); v != "" {
		c.TokenFile = v
	}
}

// Validate checks that durations parse and required values are set.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("config: api_url is required")
	}
	if c.TokenFile == "" {
		return errors.New("config: token_file is required")
	}
	if _, err := c.DebounceDelay(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// DebounceDelay is the quiet window for free-text filters.
func (c *Config) DebounceDelay() (time.Duration, error) {
	return parseDuration("debounce", c.Debounce, 300*time.Millisecond)
}

// Timeout bounds each API request.
func (c *Config) Timeout() (time.Duration, error) {
	return parseDuration("request_timeout", c.RequestTimeout, 30*time.Second)
}

func parseDuration(key, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
