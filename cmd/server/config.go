// Package main provides the countdown server CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by the server.
const EnvPrefix = "COUNTDOWN_"

// minSecretLength is the minimum JWT signing secret length in bytes.
const minSecretLength = 32

// Config represents the server configuration. Values come from the YAML file,
// then COUNTDOWN_* environment variables, then CLI flags.
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Cache    CacheConfig    `yaml:"cache" envPrefix:"CACHE_"`
	Auth     AuthConfig     `yaml:"auth" envPrefix:"AUTH_"`
	Metrics  MetricsConfig  `yaml:"metrics" envPrefix:"METRICS_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Verbose  bool           `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address           string        `yaml:"address" env:"ADDRESS"`
	Timezone          string        `yaml:"timezone" env:"TIMEZONE"` // zone timer windows are interpreted in; empty means local
	PublicCacheMaxAge time.Duration `yaml:"public_cache_max_age" env:"PUBLIC_CACHE_MAX_AGE"`
	RateLimitPerIP    int           `yaml:"rate_limit_per_ip" env:"RATE_LIMIT_PER_IP"`     // per minute
	RateLimitPerShop  int           `yaml:"rate_limit_per_shop" env:"RATE_LIMIT_PER_SHOP"` // per minute
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers" env:"TRUST_PROXY_HEADERS"`
	TLS               TLSConfig     `yaml:"tls" envPrefix:"TLS_"`
}

// TLSConfig contains HTTPS settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	CertFile string `yaml:"cert_file" env:"CERT_FILE"`
	KeyFile  string `yaml:"key_file" env:"KEY_FILE"`
}

// DatabaseConfig contains timer storage settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// CacheConfig contains the optional Redis cache settings.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"` // empty disables the cache
	TTL      time.Duration `yaml:"ttl" env:"TTL"`
}

// AuthConfig contains admin API authentication settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Address string `yaml:"address" env:"ADDRESS"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level      string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format     string `yaml:"format" env:"FORMAT"` // text or json
	File       string `yaml:"file" env:"FILE"`     // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
}

// LoadConfig loads configuration from an optional YAML file and the
// environment.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.PublicCacheMaxAge == 0 {
		c.Server.PublicCacheMaxAge = 60 * time.Second
	}
	if c.Server.RateLimitPerIP == 0 {
		c.Server.RateLimitPerIP = 300
	}
	if c.Server.RateLimitPerShop == 0 {
		c.Server.RateLimitPerShop = 100
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/countdown.db"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 60 * time.Second
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9090"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 30
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server.address is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("server.timezone: %w", err)
	}
	if c.Server.PublicCacheMaxAge < 0 {
		return errors.New("server.public_cache_max_age must not be negative")
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return errors.New("server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			return errors.New("server.tls.key_file is required when TLS is enabled")
		}
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes (set %sAUTH_JWT_SECRET)", minSecretLength, EnvPrefix)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is invalid", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is invalid", c.Log.Format)
	}
	return nil
}

// Location returns the zone timer windows are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Server.Timezone)
}
