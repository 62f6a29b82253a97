package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	toml "github.com/pelletier/go-toml/v2"
)

// FromFile overlays values from a YAML or TOML file onto cfg.
// Keys absent from the file leave the existing values untouched.
func FromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse yaml config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse toml config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}

	return nil
}

// overlayFromEnv applies the file named by CONFIG_FILE, if any.
func overlayFromEnv(cfg *Config) error {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return nil
	}
	return FromFile(cfg, path)
}
