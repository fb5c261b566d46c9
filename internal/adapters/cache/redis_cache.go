package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBackend is the remote store. Values pass through the explicit
// serialization codec on the way in and out; Redis owns consistency.
type RedisBackend struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisBackend wraps an already-connected Redis client.
func NewRedisBackend(client *redis.Client, prefix string, logger *zap.Logger) *RedisBackend {
	return &RedisBackend{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Name identifies the backend in stats.
func (b *RedisBackend) Name() string {
	return "redis"
}

// Connected reports whether the server currently answers pings.
func (b *RedisBackend) Connected(ctx context.Context) bool {
	return b.client.Ping(ctx).Err() == nil
}

// key builds the final Redis key with prefix.
func (b *RedisBackend) key(k string) string {
	if b.prefix == "" {
		return k
	}
	return b.prefix + ":" + k
}

// Get fetches and decodes a value. A value that no longer decodes is
// deleted and reported as a miss rather than surfaced as an error.
func (b *RedisBackend) Get(ctx context.Context, key string) (any, bool, error) {
	data, err := b.client.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	value, err := decodeValue(data)
	if err != nil {
		b.logger.Warn("Deleting corrupt cache entry", zap.String("key", key), zap.Error(err))
		if delErr := b.client.Del(ctx, b.key(key)).Err(); delErr != nil {
			b.logger.Error("Failed to delete corrupt cache entry", zap.String("key", key), zap.Error(delErr))
		}
		return nil, false, nil
	}
	return value, true, nil
}

// Set serializes and stores a value with the given TTL. Serialization
// failures come back as *SerializationError.
func (b *RedisBackend) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return err
	}
	if err := b.client.Set(ctx, b.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes a key.
func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Len reports the size of the Redis database.
func (b *RedisBackend) Len(ctx context.Context) int {
	size, err := b.client.DBSize(ctx).Result()
	if err != nil {
		b.logger.Debug("Failed to read redis db size", zap.Error(err))
		return 0
	}
	return int(size)
}

// Close releases the underlying client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
