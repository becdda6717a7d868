// Package config loads the optional eleva.yaml preview configuration
// and watches it for changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the name of the configuration file.
	FileName = "eleva.yaml"

	// DefaultAddr is the default preview server listen address.
	DefaultAddr = "localhost:3000"

	// DefaultComponentDir is where component templates are read from.
	DefaultComponentDir = "components"

	// DefaultWatchDebounce coalesces bursts of file change events.
	DefaultWatchDebounce = 100 * time.Millisecond
)

// Config represents the eleva.yaml schema.
type Config struct {
	// Addr is the preview server listen address.
	Addr string `yaml:"addr,omitempty"`

	// ComponentDir is the directory holding component template files.
	ComponentDir string `yaml:"componentDir,omitempty"`

	// Component is the name of the component served at the root page.
	Component string `yaml:"component,omitempty"`

	// WatchDebounce is the quiet period before a change is reported.
	WatchDebounce time.Duration `yaml:"watchDebounce,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Addr:          DefaultAddr,
		ComponentDir:  DefaultComponentDir,
		WatchDebounce: DefaultWatchDebounce,
	}
}

// Load reads eleva.yaml from dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: addr must not be empty")
	}
	if c.ComponentDir == "" {
		return fmt.Errorf("config: componentDir must not be empty")
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("config: watchDebounce must not be negative")
	}
	return nil
}
