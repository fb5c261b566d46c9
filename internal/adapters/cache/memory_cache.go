package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// entry is one cached value. Recency is implicit in the list position.
type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// MemoryBackend is the local bounded fallback store: at most
// maxEntries values, LRU eviction, lazy TTL expiry on read. Values are
// stored as-is; no serialization happens on the local backend.
//
// All read-modify-write sequences (touch-on-read, insert-plus-evict)
// run under one mutex so the recency order and the size bound stay
// consistent under concurrent access. There is no background sweep: an
// expired-but-unread entry keeps its slot until it is read or evicted
// by LRU pressure.
type MemoryBackend struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	logger     *zap.Logger
}

// NewMemoryBackend creates a bounded in-memory store.
func NewMemoryBackend(maxEntries int, logger *zap.Logger) *MemoryBackend {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryBackend{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		logger:     logger,
	}
}

// Name identifies the backend in stats.
func (b *MemoryBackend) Name() string {
	return "memory"
}

// Connected always holds for the local store.
func (b *MemoryBackend) Connected(_ context.Context) bool {
	return true
}

// Get returns the stored value and touches its recency. An expired
// entry is evicted and reported as a miss.
func (b *MemoryBackend) Get(_ context.Context, key string) (any, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	elem, ok := b.items[key]
	if !ok {
		return nil, false, nil
	}
	ent := elem.Value.(*entry)
	if time.Now().After(ent.expiresAt) {
		b.remove(elem)
		return nil, false, nil
	}

	b.order.MoveToFront(elem)
	return ent.value, true, nil
}

// Set stores the value, touching recency, and evicts the least
// recently used entry if the insert would exceed capacity.
func (b *MemoryBackend) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt := time.Now().Add(ttl)
	if elem, ok := b.items[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.expiresAt = expiresAt
		b.order.MoveToFront(elem)
		return nil
	}

	elem := b.order.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	b.items[key] = elem

	if b.order.Len() > b.maxEntries {
		oldest := b.order.Back()
		if oldest != nil {
			b.logger.Debug("Evicting least recently used cache entry",
				zap.String("key", oldest.Value.(*entry).key))
			b.remove(oldest)
		}
	}
	return nil
}

// Delete removes a key if present.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elem, ok := b.items[key]; ok {
		b.remove(elem)
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (b *MemoryBackend) Len(_ context.Context) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.order.Len()
}

// Close is a no-op for the local store.
func (b *MemoryBackend) Close() error {
	return nil
}

// remove must be called with the mutex held.
func (b *MemoryBackend) remove(elem *list.Element) {
	b.order.Remove(elem)
	delete(b.items, elem.Value.(*entry).key)
}
