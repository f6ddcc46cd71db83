// Package config loads the optional mountcore.yaml engine configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/mountcore/pkg/rendercore"
)

// FileName is the configuration file looked up by LoadOptional.
const FileName = "mountcore.yaml"

// SupportedMajor is the only config schema major version understood.
const SupportedMajor = "v1"

// Config represents mountcore.yaml.
type Config struct {
	Version string      `yaml:"version,omitempty"`
	Pool    PoolConfig  `yaml:"pool"`
	Trace   TraceConfig `yaml:"trace"`
	Log     LogConfig   `yaml:"log"`
}

// PoolConfig sizes the content pool.
type PoolConfig struct {
	DefaultCapacity int `yaml:"default_capacity,omitempty"`
	// Capacities overrides the capacity per content type; 0 disables
	// pooling for that type.
	Capacities map[string]int `yaml:"capacities,omitempty"`
}

// TraceConfig controls lifecycle tracing.
type TraceConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level   string `yaml:"level,omitempty"`
	Verbose bool   `yaml:"verbose"`
}

// LoadOptional reads mountcore.yaml from dir if present. A missing file
// yields an empty config.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Parse decodes and validates YAML config data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the version and numeric bounds.
func (c *Config) Validate() error {
	if v := strings.TrimSpace(c.Version); v != "" {
		canonical := canonicalVersion(v)
		if !semver.IsValid(canonical) {
			return fmt.Errorf("version %q is not a semantic version", v)
		}
		if major := semver.Major(canonical); major != SupportedMajor {
			return fmt.Errorf("version %q: unsupported major %s (want %s)", v, major, SupportedMajor)
		}
	}
	if c.Pool.DefaultCapacity < 0 {
		return fmt.Errorf("pool.default_capacity cannot be negative (got %d)", c.Pool.DefaultCapacity)
	}
	for ct, n := range c.Pool.Capacities {
		if n < 0 {
			return fmt.Errorf("pool.capacities[%q] cannot be negative (got %d)", ct, n)
		}
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// PoolOptions converts the pool section for rendercore.NewContentPool.
func (c *Config) PoolOptions() rendercore.PoolOptions {
	opts := rendercore.PoolOptions{DefaultCapacity: c.Pool.DefaultCapacity}
	if len(c.Pool.Capacities) > 0 {
		opts.Capacities = make(map[rendercore.ContentType]int, len(c.Pool.Capacities))
		for ct, n := range c.Pool.Capacities {
			opts.Capacities[rendercore.ContentType(ct)] = n
		}
	}
	return opts
}

// LogLevel returns the configured level, defaulting to info, or debug when
// verbose is set and no level is given.
func (c *Config) LogLevel() (log.Level, error) {
	level := strings.TrimSpace(c.Log.Level)
	if level == "" {
		if c.Log.Verbose {
			return log.DebugLevel, nil
		}
		return log.InfoLevel, nil
	}
	l, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}
