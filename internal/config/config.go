// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/cinelink/cinelink/internal/scheduler"
)

// minRetention keeps at least one full day of click events for the daily summary.
const minRetention = 24 * time.Hour

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis). Empty disables caching.
	RedisURL             string        `env:"REDIS_URL"`
	CacheDialTimeout     time.Duration `env:"CACHE_DIAL_TIMEOUT" envDefault:"250ms"`
	CacheOpTimeout       time.Duration `env:"CACHE_OP_TIMEOUT" envDefault:"250ms"`
	CacheWriteTimeout    time.Duration `env:"CACHE_WRITE_TIMEOUT" envDefault:"1s"`
	CacheSingleFlight    bool          `env:"CACHE_SINGLE_FLIGHT" envDefault:"false"`
	CacheComputeTimeout  time.Duration `env:"CACHE_COMPUTE_TIMEOUT" envDefault:"30s"`
	CacheBreakerFailures uint32        `env:"CACHE_BREAKER_FAILURES" envDefault:"5"`
	CacheBreakerCooldown time.Duration `env:"CACHE_BREAKER_COOLDOWN" envDefault:"30s"`

	// Daily rollup job. An unset retention keeps click events for one
	// calendar year.
	RollupEnabled   bool          `env:"ROLLUP_ENABLED" envDefault:"true"`
	RollupSchedule  string        `env:"ROLLUP_SCHEDULE" envDefault:"0 2 * * *"`
	RollupRetention time.Duration `env:"ROLLUP_RETENTION"`
	RollupTimeout   time.Duration `env:"ROLLUP_TIMEOUT" envDefault:"10m"`

	// Admin API bearer token. Empty disables the admin routes.
	AdminToken string `env:"ADMIN_TOKEN"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Metrics
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting on click endpoints, per client IP
	RateLimitClicksPerMinute int `env:"RATE_LIMIT_CLICKS_PER_MINUTE" envDefault:"60"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT out of range: %d", c.AppPort))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"CACHE_DIAL_TIMEOUT", c.CacheDialTimeout},
		{"CACHE_OP_TIMEOUT", c.CacheOpTimeout},
		{"CACHE_WRITE_TIMEOUT", c.CacheWriteTimeout},
		{"CACHE_COMPUTE_TIMEOUT", c.CacheComputeTimeout},
		{"CACHE_BREAKER_COOLDOWN", c.CacheBreakerCooldown},
		{"ROLLUP_TIMEOUT", c.RollupTimeout},
		{"READ_TIMEOUT", c.ReadTimeout},
		{"WRITE_TIMEOUT", c.WriteTimeout},
		{"SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.value))
		}
	}

	if c.CacheBreakerFailures == 0 {
		errs = append(errs, errors.New("CACHE_BREAKER_FAILURES must be at least 1"))
	}
	if c.RateLimitClicksPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_CLICKS_PER_MINUTE must be positive, got %d", c.RateLimitClicksPerMinute))
	}

	if c.RollupEnabled {
		if err := scheduler.ValidateSchedule(c.RollupSchedule); err != nil {
			errs = append(errs, fmt.Errorf("ROLLUP_SCHEDULE: %w", err))
		}
	}
	if c.RollupRetention != 0 && c.RollupRetention < minRetention {
		errs = append(errs, fmt.Errorf("ROLLUP_RETENTION must be at least %s, got %s", minRetention, c.RollupRetention))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
