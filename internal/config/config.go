// Package config handles application configuration from environment variables
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/occapi/cache"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Namespace is the collection provider payloads are cached under
const Namespace = "occapi_provider"

// Config holds all application configuration
type Config struct {
	Addr          string        `env:"OCCAPI_ADDR" envDefault:":8080"`
	Store         string        `env:"OCCAPI_STORE" envDefault:"file"`
	CacheDir      string        `env:"OCCAPI_CACHE_DIR"`
	DatabaseURL   string        `env:"OCCAPI_DATABASE_URL"`
	FetchTimeout  time.Duration `env:"OCCAPI_FETCH_TIMEOUT" envDefault:"10s"`
	ProvidersFile string        `env:"OCCAPI_PROVIDERS" envDefault:"providers.json"`
	LogLevel      string        `env:"OCCAPI_LOG_LEVEL" envDefault:"info"`

	Redis RedisConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string `env:"OCCAPI_REDIS_ADDR"`
	Password string `env:"OCCAPI_REDIS_PASSWORD"`
	DB       int    `env:"OCCAPI_REDIS_DB" envDefault:"0"`
	Prefix   string `env:"OCCAPI_REDIS_PREFIX" envDefault:"occapi:"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// HasDatabase returns true if a Postgres DSN is configured
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasRedis returns true if Redis configuration is complete
func (c *Config) HasRedis() bool {
	return c.Redis.Addr != ""
}

// Validate checks that the selected store can be built and the log level parses
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if !c.HasRedis() {
			return fmt.Errorf("OCCAPI_STORE=redis requires OCCAPI_REDIS_ADDR")
		}
	default:
		return fmt.Errorf("OCCAPI_STORE must be one of %s, %s, %s, got %q", StoreMemory, StoreFile, StoreRedis, c.Store)
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("OCCAPI_FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid OCCAPI_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// OpenStore builds the cache store selected by Store. The redis store must be
// closed by the caller.
func (c *Config) OpenStore(ctx context.Context) (cache.Store, error) {
	switch c.Store {
	case StoreMemory:
		return cache.NewMemoryStore(), nil
	case StoreRedis:
		rs, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix + Namespace + ":",
		})
		if err != nil {
			return nil, err
		}
		return rs, nil
	case StoreFile:
		open := func() (*cache.FileStore, error) { return cache.NewFileStore(Namespace) }
		if c.CacheDir != "" {
			open = func() (*cache.FileStore, error) {
				return cache.NewFileStoreAt(filepath.Join(c.CacheDir, Namespace))
			}
		}
		fs, err := open()
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
	return nil, fmt.Errorf("unknown store %q", c.Store)
}
