package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional price store)
	Database DatabaseConfig

	// Redis (optional series cache)
	Redis RedisConfig

	// Price sources
	Yahoo YahooConfig
	// PriceCacheDir holds the date-stamped per-ticker CSV files
	PriceCacheDir string

	// StrategyFile is the default strategy YAML path
	StrategyFile string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a PostgreSQL price store is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// YahooConfig holds the chart API client configuration
type YahooConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec int
	MaxRetries int
}

// Addr is the host:port dial address
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

// Load reads configuration from the environment, after merging an optional .env file.
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: envString("PORT", "8089"),
		Env:  envString("ENV", "development"),

		Database: DatabaseConfig{
			URL:             envString("DATABASE_URL", ""),
			MaxConns:        envInt("DB_MAX_CONNS", 10),
			MinConns:        envInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: envDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: envDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},

		Redis: RedisConfig{
			Host:     envString("REDIS_HOST", "localhost"),
			Port:     envString("REDIS_PORT", "6379"),
			Password: envString("REDIS_PASSWORD", ""),
			DB:       envInt("REDIS_DB", 0),
			Enabled:  envBool("REDIS_ENABLED", false),
		},

		Yahoo: YahooConfig{
			BaseURL:    envString("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:    envDuration("YAHOO_TIMEOUT", 15*time.Second),
			RatePerSec: envInt("YAHOO_RATE_PER_SEC", 4),
			MaxRetries: envInt("YAHOO_MAX_RETRIES", 3),
		},
		PriceCacheDir: envString("PRICE_CACHE_DIR", "data/prices"),
		StrategyFile:  envString("STRATEGY_FILE", "config/strategy.yaml"),

		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "console"),

		MetricsEnabled: envBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// validate reports every invalid value at once
func (c *Config) validate() error {
	var errs []error
	switch c.Env {
	case "development", "staging", "production":
	default:
		errs = append(errs, fmt.Errorf("ENV %q is not one of development, staging, production", c.Env))
	}
	if c.Yahoo.RatePerSec <= 0 {
		errs = append(errs, errors.New("YAHOO_RATE_PER_SEC must be positive"))
	}
	if c.PriceCacheDir == "" {
		errs = append(errs, errors.New("PRICE_CACHE_DIR must not be empty"))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS exceeds DB_MAX_CONNS"))
	}
	return errors.Join(errs...)
}

// loadEnvFile merges the first .env found in the working directory or
// next to the binary. Real environment variables win.
func loadEnvFile() {
	candidates := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates, filepath.Join(dir, ".env"), filepath.Join(dir, "..", ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
		return
	}
}

// envValue parses key with parse, falling back to def when the variable is
// unset or malformed.
func envValue[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func envString(key, def string) string {
	return envValue(key, def, func(s string) (string, error) { return s, nil })
}

func envInt(key string, def int) int {
	return envValue(key, def, strconv.Atoi)
}

func envBool(key string, def bool) bool {
	return envValue(key, def, strconv.ParseBool)
}

func envDuration(key string, def time.Duration) time.Duration {
	return envValue(key, def, time.ParseDuration)
}
