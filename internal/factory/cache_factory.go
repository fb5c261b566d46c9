package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/adapters/cache"
	"github.com/mikey/content-moderation/internal/config"
)

// CacheFactory creates the cache abstraction, selecting its backend
// exactly once.
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCache builds the cache. It tries Redis with a short timeout
// and on any failure falls back, permanently for this process, to the
// local bounded store. There is no automatic reconnection.
func (f *CacheFactory) CreateCache() (*cache.Cache, error) {
	cacheConfig := f.cfg.GetCache()
	connectTimeout, err := f.cfg.GetDuration("cache.connect_timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid cache connect timeout: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cacheConfig.RedisAddr,
		Password:     cacheConfig.RedisPassword,
		DB:           cacheConfig.RedisDB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  connectTimeout,
		WriteTimeout: connectTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		f.logger.Warn("Redis unreachable, falling back to local bounded cache",
			zap.String("address", cacheConfig.RedisAddr),
			zap.Error(err))
		_ = client.Close()
		backend := cache.NewMemoryBackend(cacheConfig.MaxEntries, f.logger)
		return cache.New(backend, f.logger), nil
	}

	f.logger.Info("Redis cache connected", zap.String("address", cacheConfig.RedisAddr))
	backend := cache.NewRedisBackend(client, cacheConfig.KeyPrefix, f.logger)
	return cache.New(backend, f.logger), nil
}

// GetCacheTTL returns the configured cache TTL
func (f *CacheFactory) GetCacheTTL() (time.Duration, error) {
	return f.cfg.GetDuration("cache.ttl")
}

// IsCacheEnabled returns whether decision caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetBool("cache.enabled")
}
