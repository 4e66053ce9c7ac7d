// Package config reads skillscope settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds process-wide settings. Zero values for optional fields
// switch the matching feature off.
type Config struct {
	// DBPath overrides the default database location.
	DBPath string `env:"SKILLSCOPE_DB"`

	// Redis profile cache; empty RedisAddr disables it.
	RedisAddr     string        `env:"SKILLSCOPE_REDIS_ADDR"`
	RedisPassword string        `env:"SKILLSCOPE_REDIS_PASSWORD"`
	RedisDB       int           `env:"SKILLSCOPE_REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"SKILLSCOPE_CACHE_TTL" envDefault:"60s"`

	HTTPAddr        string        `env:"SKILLSCOPE_HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SKILLSCOPE_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	ConflictRetries int `env:"SKILLSCOPE_CONFLICT_RETRIES" envDefault:"3"`
}

// Load reads a .env file from the working directory if present and then
// parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment into a Config without touching .env files.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("SKILLSCOPE_REDIS_DB must be >= 0, got %d", c.RedisDB))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("SKILLSCOPE_CACHE_TTL must be positive, got %s", c.CacheTTL))
	}
	if c.ConflictRetries < 0 {
		errs = append(errs, fmt.Errorf("SKILLSCOPE_CONFLICT_RETRIES must be >= 0, got %d", c.ConflictRetries))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SKILLSCOPE_SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// CacheEnabled reports whether a Redis address is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}
