// Package config handles reading and writing the taskvoice config.yaml and
// locating the data directory it lives in.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Version int           `yaml:"version"`
	Gateway GatewayConfig `yaml:"gateway"`
	Trello  TrelloConfig  `yaml:"trello"`
	Audio   AudioConfig   `yaml:"audio"`
	Journal JournalConfig `yaml:"journal"`
}

// GatewayConfig locates the assistant backend.
type GatewayConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// TrelloConfig overrides where board discovery is sent.
type TrelloConfig struct {
	APIBase string `yaml:"api_base"`
}

// AudioConfig selects the capture command. Empty means the built-in default.
type AudioConfig struct {
	Command []string `yaml:"command"`
}

// JournalConfig toggles the on-disk activity journal and sets how long
// `taskvoice clean` keeps its entries.
type JournalConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxAgeDays int  `yaml:"max_age_days"`
}

const configFile = "config.yaml"

// HomeEnv overrides the default data directory.
const HomeEnv = "TASKVOICE_HOME"

// DataDir resolves the data directory: flag, then $TASKVOICE_HOME, then the
// user config directory.
func DataDir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(base, "taskvoice"), nil
}

// Path returns the config file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, configFile)
}

// ReadConfig reads config.yaml from dir.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Load is ReadConfig that falls back to DefaultConfig when no file exists.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// WriteConfig writes cfg to config.yaml in dir, creating dir if needed.
func WriteConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(Path(dir), data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// GatewayTimeout returns the configured timeout, or zero for the client default.
func (c *Config) GatewayTimeout() time.Duration {
	if c.Gateway.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.Gateway.Timeout) * time.Second
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Gateway: GatewayConfig{
			URL:     "http://localhost:8787/api/voice",
			Timeout: 120,
		},
		Trello: TrelloConfig{
			APIBase: "https://api.trello.com",
		},
		Journal: JournalConfig{
			Enabled:    true,
			MaxAgeDays: 30,
		},
	}
}
