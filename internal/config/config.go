package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the mood service.
// Environment variables are parsed from the SKYLOG_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// DBDriver selects the store driver; "auto" derives it from BuildTarget.
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration
	SQLitePath string `envconfig:"SQLITE_PATH" default:"skylog.db"`

	// Weather provider
	WeatherAPIKey          string `envconfig:"WEATHER_API_KEY" default:""`
	WeatherBaseURL         string `envconfig:"WEATHER_BASE_URL" default:"https://api.openweathermap.org"`
	WeatherCacheTTLSeconds int    `envconfig:"WEATHER_CACHE_TTL_SECONDS" default:"600"`

	// Rate limiting (requests per user per minute)
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
	RateLimitBurst     int `envconfig:"RATE_LIMIT_BURST" default:"10"`

	// Sync batch bound
	SyncMaxBatch int `envconfig:"SYNC_MAX_BATCH" default:"100"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to
// "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true, "memory": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.SyncMaxBatch <= 0 {
		return fmt.Errorf("SYNC_MAX_BATCH must be positive, got %d", c.SyncMaxBatch)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with SKYLOG_, e.g. SKYLOG_HTTP_PORT, SKYLOG_DB_DRIVER.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SKYLOG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Int("sync_max_batch", cfg.SyncMaxBatch).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	cfg := &Config{
		Environment: EnvTesting,
		BuildTarget: "local",
		DBDriver:    "memory",
		HTTPPort:    8080,

		WeatherBaseURL:         "http://localhost:0",
		WeatherCacheTTLSeconds: 600,

		RateLimitPerMinute: 600,
		RateLimitBurst:     100,

		SyncMaxBatch: 100,

		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
