// Package config loads the application configuration from YAML with
// sane defaults for every knob.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "300ms" or "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// APIConfig describes the TableCRM endpoint.
type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// SearchConfig tunes the lookup debouncing.
type SearchConfig struct {
	ClientMinLength  int      `yaml:"client_min_length"`
	ClientDebounce   Duration `yaml:"client_debounce"`
	ProductMinLength int      `yaml:"product_min_length"`
	ProductDebounce  Duration `yaml:"product_debounce"`
}

// NotifyConfig tunes the advisory surface.
type NotifyConfig struct {
	Dismiss Duration `yaml:"dismiss"`
}

// Config is the full application configuration.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Search SearchConfig `yaml:"search"`
	Notify NotifyConfig `yaml:"notify"`
}

// Load reads the configuration from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the configuration or falls back to the
// defaults when the file is absent.
func LoadOrDefault(path string) *Config {
	if path == "" {
		path = filepath.Join("config", "pos.yaml")
	}
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://app.tablecrm.com/api/v1",
			Timeout: Duration(30 * time.Second),
		},
		Search: SearchConfig{
			ClientMinLength:  3,
			ClientDebounce:   Duration(300 * time.Millisecond),
			ProductMinLength: 2,
			ProductDebounce:  Duration(500 * time.Millisecond),
		},
		Notify: NotifyConfig{
			Dismiss: Duration(5 * time.Second),
		},
	}
}

// Validate checks constraints a running application relies on.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.Search.ClientMinLength < 1 || c.Search.ProductMinLength < 1 {
		return fmt.Errorf("search min lengths must be at least 1")
	}
	if c.Search.ClientDebounce <= 0 || c.Search.ProductDebounce <= 0 {
		return fmt.Errorf("search debounce intervals must be positive")
	}
	if c.Notify.Dismiss <= 0 {
		return fmt.Errorf("notify.dismiss must be positive")
	}
	return nil
}
