// Package config loads runtime configuration from an optional YAML file
// with environment variable overrides. Precedence: defaults, then file,
// then environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration for the server and CLI.
type Config struct {
	// ListenAddr is the HTTP API bind address.
	ListenAddr string `yaml:"listen_addr"`

	// DatabasePath is the SQLite database file.
	DatabasePath string `yaml:"database_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig configures the optional Redis snapshot cache.
// The cache is disabled unless Enabled is set.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addr     string   `yaml:"addr"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Database int      `yaml:"database"`
	TTL      Duration `yaml:"ttl"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "30m" or "24h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:   ":8080",
		DatabasePath: "data/buildvc.db",
		LogLevel:     "info",
		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  Duration(24 * time.Hour),
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables apply; a named file that does not
// exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ListenAddr = envDefault("BUILDVC_LISTEN_ADDR", cfg.ListenAddr)
	cfg.DatabasePath = envDefault("BUILDVC_DB_PATH", cfg.DatabasePath)
	cfg.LogLevel = envDefault("BUILDVC_LOG_LEVEL", cfg.LogLevel)

	cfg.Cache.Enabled = envBool("BUILDVC_CACHE_ENABLED", cfg.Cache.Enabled)
	cfg.Cache.Addr = envDefault("BUILDVC_CACHE_ADDR", cfg.Cache.Addr)
	cfg.Cache.Username = envDefault("BUILDVC_CACHE_USERNAME", cfg.Cache.Username)
	cfg.Cache.Password = envDefault("BUILDVC_CACHE_PASSWORD", cfg.Cache.Password)
	cfg.Cache.Database = envInt("BUILDVC_CACHE_DB", cfg.Cache.Database)
	cfg.Cache.TTL = Duration(envDuration("BUILDVC_CACHE_TTL", cfg.Cache.TTL.Std()))
}

func envDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func envBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}
