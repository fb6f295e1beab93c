// Package config reads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	// Storage selects the backing store, postgres or memory.
	Storage string `env:"STORAGE,default=postgres"`

	Port    int    `env:"PORT,default=3001"`
	GinMode string `env:"GIN_MODE,default=release"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	CORSOrigins string `env:"CORS_ORIGINS,default=http://localhost:3000"`

	JWTSecret       string `env:"JWT_SECRET"`
	JWTRequiredRole string `env:"JWT_REQUIRED_ROLE"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=20"`

	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL,default=60s"`

	EnforceCapacity bool `env:"ENFORCE_CAPACITY,default=false"`
	AutoMigrate     bool `env:"AUTO_MIGRATE,default=false"`
	MetricsEnabled  bool `env:"METRICS_ENABLED,default=true"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Load reads envFile (when it exists) into the process environment, then decodes and validates.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("config: STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if c.RateLimitRPS < 0 {
		return errors.New("config: RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return errors.New("config: RATE_LIMIT_BURST must be at least 1")
	}
	if c.JWTRequiredRole != "" && c.JWTSecret == "" {
		return errors.New("config: JWT_REQUIRED_ROLE needs JWT_SECRET")
	}
	return nil
}

// Origins splits CORS_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
