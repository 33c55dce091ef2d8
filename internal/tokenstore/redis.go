package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps keys in Redis under a common prefix. Values never
// expire on their own; the backend decides when a token stops working.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisStore wraps client and verifies the connection.
func NewRedisStore(ctx context.Context, client *redis.Client, prefix string, logger *slog.Logger) (*RedisStore, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Debug("initialized redis token store", "prefix", prefix)

	return &RedisStore{client: client, prefix: prefix, logger: logger}, nil
}

// Get returns the value at key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", &StoreError{Op: "Get", Key: key, Err: ErrInvalidKey}
	}

	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", &StoreError{Op: "Get", Key: key, Err: ErrNotFound}
	}
	if err != nil {
		return "", &StoreError{Op: "Get", Key: key, Err: err}
	}
	return value, nil
}

// Set stores value at key without expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return &StoreError{Op: "Set", Key: key, Err: ErrInvalidKey}
	}
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return &StoreError{Op: "Set", Key: key, Err: err}
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return &StoreError{Op: "Delete", Key: key, Err: ErrInvalidKey}
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return &StoreError{Op: "Delete", Key: key, Err: err}
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
