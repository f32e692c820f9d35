// Package config loads and validates verifyd's runtime configuration
// from a YAML file, with environment variable overrides applied on
// top, following the same load -> env-override -> validate pipeline
// used throughout this codebase.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the primary HTTP API listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	AdminPort       int           `yaml:"admin_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// CacheConfig configures the Redis client used for the revocation
// blacklist and rate-limit counters.
type CacheConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// SigningConfig configures the Ed25519 signing key used to issue
// capability tokens, and the leeway applied to JWT time-bound claims.
type SigningConfig struct {
	PrivateKeyPath   string `yaml:"private_key_path"`
	KeyID            string `yaml:"key_id"`
	JWTLeewaySeconds int    `yaml:"jwt_leeway_seconds"`
}

// CapabilityConfig bounds the TTL a caller may request when a new
// capability is issued.
type CapabilityConfig struct {
	DefaultTTLMinutes int `yaml:"default_ttl_minutes"`
	MinTTLMinutes     int `yaml:"min_ttl_minutes"`
	MaxTTLMinutes     int `yaml:"max_ttl_minutes"`
}

// RateLimitConfig configures the fixed-window rate limiter.
type RateLimitConfig struct {
	WindowSeconds        int  `yaml:"window_seconds"`
	RedisKeyTTLSeconds   int  `yaml:"redis_key_ttl_seconds"`
	RedisFailOpen        bool `yaml:"redis_fail_open"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CorsConfig configures cross-origin access to the admin surface. The
// verify and capability-issuance endpoints are called by backend
// agents, not browsers, but the admin CRUD surface is reachable from
// an operator dashboard.
type CorsConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAgeSeconds    int      `yaml:"max_age_seconds"`
}

// IsProduction reports whether the configured origin list is a safe,
// explicit allowlist: non-empty, and containing no wildcard entry. A
// wildcard anywhere in the list negates every other restriction.
func (c CorsConfig) IsProduction() bool {
	if len(c.AllowedOrigins) == 0 {
		return false
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return false
		}
	}
	return true
}

// Config is the complete, validated runtime configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Signing    SigningConfig    `yaml:"signing"`
	Capability CapabilityConfig `yaml:"capability"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Logging    LoggingConfig    `yaml:"logging"`
	Cors       CorsConfig       `yaml:"cors"`
}

// Default returns a Config populated with the defaults named in the
// specification: a 15 minute default capability TTL bounded to
// [5, 30] minutes, a 60 second rate-limit window with a 70 second
// Redis key TTL, fail-closed rate limiting, and a 5 second JWT leeway.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			AdminPort:       8081,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "verifyd",
			Name:            "",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Cache: CacheConfig{
			Addr:        "localhost:6379",
			DB:          0,
			DialTimeout: 5 * time.Second,
		},
		Signing: SigningConfig{
			JWTLeewaySeconds: 5,
		},
		Capability: CapabilityConfig{
			DefaultTTLMinutes: 15,
			MinTTLMinutes:     5,
			MaxTTLMinutes:     30,
		},
		RateLimit: RateLimitConfig{
			WindowSeconds:      60,
			RedisKeyTTLSeconds: 70,
			RedisFailOpen:      false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Cors: CorsConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Workspace-Id"},
			MaxAgeSeconds:  300,
		},
	}
}

// Load reads a YAML config file at path, applies environment variable
// overrides, validates the result, and returns it.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadFromEnv(config *Config) error {
	if v := os.Getenv("DB_HOST"); v != "" {
		config.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		config.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		config.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		config.Database.Name = v
	}
	if v := os.Getenv("CACHE_ADDR"); v != "" {
		config.Cache.Addr = v
	}
	if v := os.Getenv("CACHE_PASSWORD"); v != "" {
		config.Cache.Password = v
	}
	if v := os.Getenv("SIGNING_KEY_PATH"); v != "" {
		config.Signing.PrivateKeyPath = v
	}
	if v := os.Getenv("SIGNING_KEY_ID"); v != "" {
		config.Signing.KeyID = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("RATE_LIMIT_REDIS_FAIL_OPEN"); v != "" {
		config.RateLimit.RedisFailOpen = v == "true"
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		config.Cors.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("CORS_ALLOW_CREDENTIALS"); v != "" {
		config.Cors.AllowCredentials = v == "true"
	}
	return nil
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.Database.Port < 1 || config.Database.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535")
	}
	if config.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if config.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if config.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be greater than 0")
	}
	if config.Database.MaxIdleConns < 0 {
		return fmt.Errorf("max idle connections must be non-negative")
	}
	if config.Cache.Addr == "" {
		return fmt.Errorf("cache addr is required")
	}
	if config.Signing.PrivateKeyPath == "" {
		return fmt.Errorf("signing private key path is required")
	}
	if config.Signing.KeyID == "" {
		return fmt.Errorf("signing key id is required")
	}
	if config.Signing.JWTLeewaySeconds < 0 {
		return fmt.Errorf("jwt leeway seconds must be non-negative")
	}
	if config.Capability.MinTTLMinutes <= 0 {
		return fmt.Errorf("capability min ttl minutes must be greater than 0")
	}
	if config.Capability.MaxTTLMinutes < config.Capability.MinTTLMinutes {
		return fmt.Errorf("capability max ttl minutes must be >= min ttl minutes")
	}
	if config.Capability.DefaultTTLMinutes < config.Capability.MinTTLMinutes ||
		config.Capability.DefaultTTLMinutes > config.Capability.MaxTTLMinutes {
		return fmt.Errorf("capability default ttl minutes must be between min and max ttl minutes")
	}
	if config.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit window seconds must be greater than 0")
	}
	if config.RateLimit.RedisKeyTTLSeconds <= config.RateLimit.WindowSeconds {
		return fmt.Errorf("rate limit redis key ttl seconds must exceed the window")
	}
	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", config.Logging.Level)
	}
	if config.Cors.AllowCredentials && !config.Cors.IsProduction() {
		return fmt.Errorf("cors allow_credentials requires an explicit origin allowlist, not a wildcard")
	}
	return nil
}
