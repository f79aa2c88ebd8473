// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for geogate.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Provider  ProviderConfig  `mapstructure:"provider" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Bot       BotConfig       `mapstructure:"bot"`
}

// ProviderConfig selects and configures the geocoding service.
type ProviderConfig struct {
	Name      string        `mapstructure:"name" validate:"required,oneof=nominatim googlev3 geoapify"`
	UserAgent string        `mapstructure:"user_agent"`
	APIKey    string        `mapstructure:"api_key"`
	Domain    string        `mapstructure:"domain"`
	Region    string        `mapstructure:"region"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig controls outbound pacing and retry.
type RateLimitConfig struct {
	// MinDelay left at zero means "use the provider's published default".
	MinDelay      time.Duration `mapstructure:"min_delay"`
	MaxRetries    int           `mapstructure:"max_retries" validate:"gte=0"`
	ErrorWait     time.Duration `mapstructure:"error_wait"`
	SwallowErrors bool          `mapstructure:"swallow_errors"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig defines connection parameters for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// DatabaseConfig defines the optional Postgres result store.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string based on config values.
func (c DatabaseConfig) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslmode,
	)
}

// Configured reports whether a result database was set up at all.
func (c DatabaseConfig) Configured() bool {
	return c.Host != "" && c.Name != ""
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// ClientRateLimit caps requests per client IP inside ClientRateWindow.
	// Zero disables server-side limiting.
	ClientRateLimit  int           `mapstructure:"client_rate_limit"`
	ClientRateWindow time.Duration `mapstructure:"client_rate_window"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`

	// File, when set, additionally writes rotated log files there.
	File string `mapstructure:"file"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// BotConfig controls the Telegram bot surface.
type BotConfig struct {
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}
