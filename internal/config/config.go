package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultModel is the baseline identifier applied when a request omits
	// the model field.
	DefaultModel = "mistral-7b-instruct"

	defaultTimeoutSeconds = 300
)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port         int    `yaml:"port"`
	DefaultModel string `yaml:"default_model"`
}

// BackendConfig captures routing info for the inference backend.
type BackendConfig struct {
	BaseURL        string   `yaml:"base_url"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Models         []string `yaml:"models"`
}

// Load reads YAML configuration from disk and validates the result. A value
// that does not parse as an integer port fails here, before any socket is
// opened.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Server.DefaultModel) == "" {
		c.Server.DefaultModel = DefaultModel
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = defaultTimeoutSeconds
	}
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}

	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url must be provided")
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds must not be negative, got %d", c.Backend.TimeoutSeconds)
	}
	if len(c.Backend.Models) == 0 {
		return fmt.Errorf("backend.models must list at least one model")
	}

	seen := make(map[string]struct{}, len(c.Backend.Models))
	for _, model := range c.Backend.Models {
		if strings.TrimSpace(model) == "" {
			return fmt.Errorf("backend.models must not contain empty entries")
		}
		if _, ok := seen[model]; ok {
			return fmt.Errorf("backend.models contains duplicate entry %q", model)
		}
		seen[model] = struct{}{}
	}

	return nil
}
