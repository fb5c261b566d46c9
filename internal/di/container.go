package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/adapters/imaging"
	"github.com/mikey/content-moderation/internal/config"
	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/detector"
	"github.com/mikey/content-moderation/internal/factory"
	"github.com/mikey/content-moderation/internal/health"
	"github.com/mikey/content-moderation/internal/logging"
	"github.com/mikey/content-moderation/internal/pool"
	"github.com/mikey/content-moderation/internal/ports"
	"github.com/mikey/content-moderation/internal/utils"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewDetectorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewServerFactory); err != nil {
		return nil, err
	}

	// Register worker pool
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *pool.Pool {
		moderationConfig := cfg.GetModeration()
		return pool.New(logger, moderationConfig.Workers, moderationConfig.QueueSize)
	}); err != nil {
		return nil, err
	}

	// Register detector loader
	if err := container.Provide(func(f *factory.DetectorFactory, logger *zap.Logger) *detector.Loader {
		return detector.NewLoader(f.Constructor(), logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(l *detector.Loader) core.DetectorSource {
		return l
	}); err != nil {
		return nil, err
	}

	// Register image decoder
	if err := container.Provide(func(logger *zap.Logger) core.ImageDecoder {
		return imaging.NewDecoder(logger)
	}); err != nil {
		return nil, err
	}

	// Register cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.KeyValueCache, error) {
		return f.CreateCache()
	}); err != nil {
		return nil, err
	}

	// Register cache TTL and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (time.Duration, error) {
		return f.GetCacheTTL()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register moderation service
	if err := container.Provide(core.NewModerationService); err != nil {
		return nil, err
	}

	// Register health reporter
	if err := container.Provide(func(l *detector.Loader, p *pool.Pool, c core.KeyValueCache) *health.Reporter {
		return health.NewReporter(l, p, c, Version)
	}); err != nil {
		return nil, err
	}

	// Register moderation server
	if err := container.Provide(func(
		f *factory.ServerFactory,
		service *core.ModerationService,
		reporter *health.Reporter,
		cacheRepo core.KeyValueCache,
	) (ports.ModerationServer, error) {
		return f.CreateModerationServer(service, reporter, cacheRepo)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
