package health

import (
	"context"
	"time"

	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/detector"
	"github.com/mikey/content-moderation/internal/pool"
)

// ServiceHealth is the top-level service view.
type ServiceHealth struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	Timestamp      string `json:"timestamp"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	CacheConnected bool   `json:"cache_connected"`
	Version        string `json:"version"`
}

// ModerationHealth is the moderation subsystem view.
type ModerationHealth struct {
	Status        string     `json:"status"`
	DetectorModel string     `json:"detector_model"`
	Pool          pool.Stats `json:"thread_pool"`
	Service       string     `json:"service"`
}

// Reporter provides read-only views into loader, pool, and cache
// state. It never mutates anything.
type Reporter struct {
	loader  *detector.Loader
	pool    *pool.Pool
	cache   core.KeyValueCache
	started time.Time
	version string
}

// NewReporter creates a reporter.
func NewReporter(loader *detector.Loader, p *pool.Pool, cache core.KeyValueCache, version string) *Reporter {
	return &Reporter{
		loader:  loader,
		pool:    p,
		cache:   cache,
		started: time.Now(),
		version: version,
	}
}

// Service reports overall service health.
func (r *Reporter) Service(ctx context.Context) ServiceHealth {
	return ServiceHealth{
		Status:         "healthy",
		Service:        "content-moderation",
		Timestamp:      time.Now().Format(time.RFC3339),
		UptimeSeconds:  int64(time.Since(r.started).Seconds()),
		CacheConnected: r.cache.Stats(ctx).Connected,
		Version:        r.version,
	}
}

// Moderation reports the moderation subsystem's health.
func (r *Reporter) Moderation(_ context.Context) ModerationHealth {
	return ModerationHealth{
		Status:        "healthy",
		DetectorModel: r.loader.State().String(),
		Pool:          r.pool.Stats(),
		Service:       "content_moderation",
	}
}

// Cache reports the active cache backend's stats.
func (r *Reporter) Cache(ctx context.Context) core.CacheStats {
	return r.cache.Stats(ctx)
}
