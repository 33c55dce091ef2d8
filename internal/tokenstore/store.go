// Package tokenstore persists small opaque values, such as the session
// token, under string keys.
//
// Implementations:
//   - FileStore: one file per key under a directory (the default)
//   - RedisStore: keys in Redis, for sharing a session between machines
//   - MemoryStore: process-local, for tests and throwaway sessions
package tokenstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Store is a minimal key-value store.
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Backend names
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	// Dir is the FileStore directory.
	Dir string

	// RedisURL is a redis:// URL for RedisStore.
	RedisURL string

	// Prefix is prepended to RedisStore keys.
	Prefix string
}

// New opens the configured backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendFile:
		return NewFileStore(cfg.Dir, logger)
	case BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return NewRedisStore(ctx, redis.NewClient(opts), cfg.Prefix, logger)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown token store backend: %q", cfg.Backend)
	}
}
