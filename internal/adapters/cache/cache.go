package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/core"
)

// Backend is one concrete key/value store. Exactly one backend is
// active for the lifetime of a Cache; the two implementations are
// alternatives, never combined.
type Backend interface {
	Name() string
	Connected(ctx context.Context) bool
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Len(ctx context.Context) int
	Close() error
}

// Cache implements core.KeyValueCache over the backend chosen at
// construction. Backend failures never reach the caller: reads become
// misses and writes are dropped with a log line. The only error Set
// surfaces is a *SerializationError for values the codec refuses.
type Cache struct {
	backend Backend
	logger  *zap.Logger
	hits    uint64
	misses  uint64
}

// New wraps the selected backend.
func New(backend Backend, logger *zap.Logger) *Cache {
	return &Cache{
		backend: backend,
		logger:  logger,
	}
}

// Get returns the value for key, or a miss. Backend errors are logged
// and reported as misses.
func (c *Cache) Get(ctx context.Context, key string) (any, bool) {
	value, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}
	if !ok {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}
	atomic.AddUint64(&c.hits, 1)
	return value, true
}

// Set stores value under key with the given TTL. A value the codec
// cannot serialize fails loudly with *SerializationError; backend
// write failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	err := c.backend.Set(ctx, key, value, ttl)
	if err == nil {
		return nil
	}
	var serr *SerializationError
	if errors.As(err, &serr) {
		return err
	}
	c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
	return nil
}

// Delete removes key. Backend failures are logged and swallowed.
func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.backend.Delete(ctx, key); err != nil {
		c.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Stats reports which backend is active plus basic size and hit/miss
// counters.
func (c *Cache) Stats(ctx context.Context) core.CacheStats {
	return core.CacheStats{
		Backend:   c.backend.Name(),
		Connected: c.backend.Connected(ctx),
		Entries:   c.backend.Len(ctx),
		Hits:      atomic.LoadUint64(&c.hits),
		Misses:    atomic.LoadUint64(&c.misses),
	}
}

// Close releases backend resources.
func (c *Cache) Close() error {
	return c.backend.Close()
}
