package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string

	// Backend API
	APIBaseURL     string  // e.g. "http://localhost:8080/api"
	RateLimitRPS   float64 // Outgoing request cap; 0 disables limiting
	RateLimitBurst int

	// Token persistence
	TokenStore  string // "file", "redis" or "memory"
	StateDir    string // Directory of the file store
	RedisURL    string // Required when TokenStore is "redis"
	RedisPrefix string // Prepended to every Redis key

	// Search behaviour
	SearchDebounce time.Duration
	SearchMinChars int

	// Metrics endpoint address (e.g. ":9090"); empty disables it
	MetricsAddr string
}

const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

func NewConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL:     strings.TrimSuffix(getEnv("API_BASE_URL", "http://localhost:8080/api"), "/"),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),

		TokenStore:  getEnv("TOKEN_STORE", TokenStoreFile),
		StateDir:    getEnv("STATE_DIR", defaultStateDir()),
		RedisURL:    getEnv("REDIS_URL", ""),
		RedisPrefix: getEnv("REDIS_PREFIX", "crms:"),

		SearchDebounce: getEnvDuration("SEARCH_DEBOUNCE", 350*time.Millisecond),
		SearchMinChars: getEnvInt("SEARCH_MIN_CHARS", 2),

		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	switch cfg.TokenStore {
	case TokenStoreFile:
		if cfg.StateDir == "" {
			return nil, fmt.Errorf("STATE_DIR is required when TOKEN_STORE is 'file'")
		}
	case TokenStoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when TOKEN_STORE is 'redis'")
		}
	case TokenStoreMemory:
	default:
		return nil, fmt.Errorf("TOKEN_STORE must be one of 'file', 'redis' or 'memory', got: %s", cfg.TokenStore)
	}

	if cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must not be negative, got: %v", cfg.RateLimitRPS)
	}
	if cfg.SearchDebounce <= 0 {
		return nil, fmt.Errorf("SEARCH_DEBOUNCE must be positive, got: %v", cfg.SearchDebounce)
	}
	if cfg.SearchMinChars < 1 {
		return nil, fmt.Errorf("SEARCH_MIN_CHARS must be at least 1, got: %d", cfg.SearchMinChars)
	}

	return cfg, nil
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".crms"
	}
	return filepath.Join(dir, "crms")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
