package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/detector"
	"github.com/mikey/content-moderation/internal/di"
	"github.com/mikey/content-moderation/internal/metrics"
	"github.com/mikey/content-moderation/internal/pool"
	"github.com/mikey/content-moderation/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	server ports.ModerationServer,
	loader *detector.Loader,
	workerPool *pool.Pool,
	cacheRepo core.KeyValueCache,
) error {
	defer logger.Sync()

	metrics.Register()

	// Warm up the detector so the first request doesn't pay for the
	// load. Failure is logged, not fatal: the loader retries lazily.
	warmupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := loader.Warmup(warmupCtx, workerPool); err != nil {
		logger.Error("Detector warmup failed", zap.Error(err))
		logger.Warn("Content moderation may be slower on first request")
	} else {
		logger.Info("Detector warmed up")
	}
	cancel()

	// Start the server
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop server", zap.Error(err))
	}

	workerPool.Shutdown()

	// Close any resources that need closing
	if closer, ok := cacheRepo.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close cache", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
