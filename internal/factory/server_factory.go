package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/adapters/httpserver"
	"github.com/mikey/content-moderation/internal/config"
	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/health"
	"github.com/mikey/content-moderation/internal/ports"
)

// ServerFactory creates the transport adapter
type ServerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewServerFactory creates a new server factory
func NewServerFactory(cfg *config.Config, logger *zap.Logger) *ServerFactory {
	return &ServerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateModerationServer creates the HTTP server for the service
func (f *ServerFactory) CreateModerationServer(
	service *core.ModerationService,
	reporter *health.Reporter,
	cacheRepo core.KeyValueCache,
) (ports.ModerationServer, error) {
	serverConfig := f.cfg.GetServer()
	requestTimeout, err := f.cfg.GetDuration("server.request_timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid server request timeout: %w", err)
	}
	defaultSensitivity := core.ParseSensitivity(f.cfg.GetModeration().DefaultSensitivity)

	return httpserver.NewServer(
		service,
		reporter,
		cacheRepo,
		f.logger,
		serverConfig.ListenAddress,
		requestTimeout,
		serverConfig.MaxBodyBytes,
		defaultSensitivity,
	), nil
}
