// Package config provides reading of studio server configuration.
// Configuration is a YAML file (default studio.yaml) with STUDIO_* environment
// overrides; environment wins over file, file wins over defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidValue is returned when a config value is out of bounds.
	ErrInvalidValue = errors.New("invalid config value")
)

// Server holds HTTP listener configuration.
type Server struct {
	Host string `yaml:"host,omitempty"`
	Port *int   `yaml:"port,omitempty"`
}

// Database holds SQLite configuration. Pool bounds cap concurrent
// connections checked out by request handlers.
type Database struct {
	Path    string `yaml:"path,omitempty"`
	PoolMin *int   `yaml:"pool_min,omitempty"`
	PoolMax *int   `yaml:"pool_max,omitempty"`
}

// Auth holds the path filters applied by the auth middleware. Public
// prefixes skip authentication entirely; the internal prefix marks
// machine-facing endpoints that pass through unauthenticated.
type Auth struct {
	PublicPrefixes []string `yaml:"public_prefixes,omitempty"`
	InternalPrefix string   `yaml:"internal_prefix,omitempty"`
}

// Defaults applied when not configured.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8000
	DefaultDBPath         = "studio.db"
	DefaultPoolMin        = 1
	DefaultPoolMax        = 10
	DefaultInternalPrefix = "/internal/"
)

// Validation bounds for pool configuration.
const (
	MinPool = 1
	MaxPool = 128
)

// Config contains configuration for the studio server.
type Config struct {
	Server   Server   `yaml:"server,omitempty"`
	Database Database `yaml:"database,omitempty"`
	Auth     Auth     `yaml:"auth,omitempty"`
	Debug    bool     `yaml:"debug,omitempty"`
}

// Validate checks that all configured values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Database.PoolMin != nil {
		v := *c.Database.PoolMin
		if v < MinPool || v > MaxPool {
			return fmt.Errorf("%w: pool_min must be between %d and %d, got %d",
				ErrInvalidValue, MinPool, MaxPool, v)
		}
	}
	if c.Database.PoolMax != nil {
		v := *c.Database.PoolMax
		if v < MinPool || v > MaxPool {
			return fmt.Errorf("%w: pool_max must be between %d and %d, got %d",
				ErrInvalidValue, MinPool, MaxPool, v)
		}
	}
	if c.Database.PoolMin != nil && c.Database.PoolMax != nil && *c.Database.PoolMin > *c.Database.PoolMax {
		return fmt.Errorf("%w: pool_min (%d) exceeds pool_max (%d)",
			ErrInvalidValue, *c.Database.PoolMin, *c.Database.PoolMax)
	}
	if c.Server.Port != nil {
		v := *c.Server.Port
		if v < 1 || v > 65535 {
			return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalidValue, v)
		}
	}
	return nil
}

// Host returns the listen host (defaults to 0.0.0.0).
func (c *Config) Host() string {
	if c.Server.Host == "" {
		return DefaultHost
	}
	return c.Server.Host
}

// Port returns the listen port (defaults to 8000).
func (c *Config) Port() int {
	if c.Server.Port == nil {
		return DefaultPort
	}
	return *c.Server.Port
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host(), c.Port())
}

// DBPath returns the SQLite database path (defaults to studio.db).
func (c *Config) DBPath() string {
	if c.Database.Path == "" {
		return DefaultDBPath
	}
	return c.Database.Path
}

// PoolMin returns the minimum idle connection count (defaults to 1).
func (c *Config) PoolMin() int {
	if c.Database.PoolMin == nil {
		return DefaultPoolMin
	}
	return *c.Database.PoolMin
}

// PoolMax returns the maximum open connection count (defaults to 10).
func (c *Config) PoolMax() int {
	if c.Database.PoolMax == nil {
		return DefaultPoolMax
	}
	return *c.Database.PoolMax
}

// PublicPrefixes returns path prefixes exempt from authentication.
func (c *Config) PublicPrefixes() []string {
	if len(c.Auth.PublicPrefixes) == 0 {
		return []string{"/health"}
	}
	return c.Auth.PublicPrefixes
}

// InternalPrefix returns the machine-facing path prefix that the auth filter
// passes through (defaults to /internal/).
func (c *Config) InternalPrefix() string {
	if c.Auth.InternalPrefix == "" {
		return DefaultInternalPrefix
	}
	return c.Auth.InternalPrefix
}

// Load reads configuration from path, then applies STUDIO_* environment
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("malformed config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyEnv overlays STUDIO_* environment variables onto the config.
func (c *Config) applyEnv() error {
	if v := os.Getenv("STUDIO_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("STUDIO_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: STUDIO_PORT=%q is not an integer", ErrInvalidValue, v)
		}
		c.Server.Port = &n
	}
	if v := os.Getenv("STUDIO_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("STUDIO_DB_POOL_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: STUDIO_DB_POOL_MIN=%q is not an integer", ErrInvalidValue, v)
		}
		c.Database.PoolMin = &n
	}
	if v := os.Getenv("STUDIO_DB_POOL_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: STUDIO_DB_POOL_MAX=%q is not an integer", ErrInvalidValue, v)
		}
		c.Database.PoolMax = &n
	}
	if v := os.Getenv("STUDIO_DEBUG"); v != "" {
		c.Debug = v == "1" || v == "true"
	}
	return nil
}
