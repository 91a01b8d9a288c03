// Package config holds the exporter's runtime configuration. Values are
// resolved with precedence: explicit CLI flag > environment variable >
// config file > built-in default. The only hard validation is the
// metadata directory existing at startup; everything else has a sane
// default.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvMetadataDir overrides the default metadata directory when the
// --metadata-dir flag is not given.
const EnvMetadataDir = "SIRSEER_METADATA_DIR"

const (
	DefaultPort            = 9100
	DefaultMetadataDir     = "./metadata"
	DefaultIntervalSeconds = 30
)

// Config is the fully resolved exporter configuration.
type Config struct {
	Port            int    `yaml:"port"`
	MetadataDir     string `yaml:"metadata_dir"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	Watch           bool   `yaml:"watch"`
}

// Default returns the built-in configuration, with the environment's
// metadata-directory override already applied.
func Default() Config {
	cfg := Config{
		Port:            DefaultPort,
		MetadataDir:     DefaultMetadataDir,
		IntervalSeconds: DefaultIntervalSeconds,
	}
	if dir := os.Getenv(EnvMetadataDir); dir != "" {
		cfg.MetadataDir = dir
	}
	return cfg
}

// Interval returns the collection interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Validate checks value ranges. The metadata directory's existence is
// checked separately at scanner construction, where it is fatal.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.IntervalSeconds < 1 {
		return fmt.Errorf("interval must be at least 1 second, got %d", c.IntervalSeconds)
	}
	if c.MetadataDir == "" {
		return fmt.Errorf("metadata directory must not be empty")
	}
	return nil
}

// fileConfig mirrors Config with pointer fields so a config file can set
// only some keys without clobbering higher-precedence values.
type fileConfig struct {
	Port            *int    `yaml:"port"`
	MetadataDir     *string `yaml:"metadata_dir"`
	IntervalSeconds *int    `yaml:"interval_seconds"`
	Watch           *bool   `yaml:"watch"`
}

// LoadFile merges an optional YAML config file into cfg. Keys absent from
// the file keep their current value; overlay decides per key whether the
// file value may apply (false once a flag or env var already set it).
func LoadFile(path string, cfg *Config, overlay Overlay) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.Port != nil && overlay.Port {
		cfg.Port = *fc.Port
	}
	if fc.MetadataDir != nil && overlay.MetadataDir {
		cfg.MetadataDir = *fc.MetadataDir
	}
	if fc.IntervalSeconds != nil && overlay.Interval {
		cfg.IntervalSeconds = *fc.IntervalSeconds
	}
	if fc.Watch != nil && overlay.Watch {
		cfg.Watch = *fc.Watch
	}
	return nil
}

// Overlay marks which keys the config file is still allowed to set.
type Overlay struct {
	Port        bool
	MetadataDir bool
	Interval    bool
	Watch       bool
}
