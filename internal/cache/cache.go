// Package cache provides a Redis-backed cache for the read-mostly calendar
// reference data and team-view payloads.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aimd54/officecal/internal/config"
	"github.com/aimd54/officecal/pkg/logger"
)

// Cache is the minimal cache surface the services depend on. Get returns an
// empty string for a missing key, not an error.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// TeamViewKey is the cache key for the team calendar payload of one month.
// CalendarMonth data is shared read-mostly reference data, safe to cache per
// (year, month); any write to that month invalidates the key.
func TeamViewKey(year int, month time.Month) string {
	return fmt.Sprintf("teamview:%d-%02d", year, int(month))
}

// Redis is the production Cache implementation.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg *config.RedisConfig, log *logger.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Int("db", cfg.DB).
		Msg("Connected to Redis")

	return &Redis{client: client}, nil
}

// NewRedisWithClient wraps an existing client. Used in tests with miniredis.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get retrieves a value; a missing key yields ("", nil).
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

// Set stores a value with the given TTL.
func (r *Redis) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Del removes keys. Missing keys are not an error.
func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Noop is a Cache that stores nothing. Used when Redis is disabled.
type Noop struct{}

// Get always misses.
func (Noop) Get(ctx context.Context, key string) (string, error) { return "", nil }

// Set discards the value.
func (Noop) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return nil
}

// Del does nothing.
func (Noop) Del(ctx context.Context, keys ...string) error { return nil }
