package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mikey/content-moderation/internal/core"
	"github.com/mikey/content-moderation/internal/health"
	"github.com/mikey/content-moderation/internal/metrics"
)

// Server exposes the moderation service over HTTP. It implements
// ports.ModerationServer.
type Server struct {
	service            *core.ModerationService
	reporter           *health.Reporter
	cache              core.KeyValueCache
	logger             *zap.Logger
	listenAddr         string
	requestTimeout     time.Duration
	maxBodyBytes       int64
	defaultSensitivity core.Sensitivity
	srv                *http.Server
}

// NewServer creates the HTTP server adapter.
func NewServer(
	service *core.ModerationService,
	reporter *health.Reporter,
	cache core.KeyValueCache,
	logger *zap.Logger,
	listenAddr string,
	requestTimeout time.Duration,
	maxBodyBytes int64,
	defaultSensitivity core.Sensitivity,
) *Server {
	return &Server{
		service:            service,
		reporter:           reporter,
		cache:              cache,
		logger:             logger,
		listenAddr:         listenAddr,
		requestTimeout:     requestTimeout,
		maxBodyBytes:       maxBodyBytes,
		defaultSensitivity: defaultSensitivity,
	}
}

// routes builds the router. Split out so tests can exercise handlers
// without binding a socket.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(s.requestTimeout))

	r.Route("/content", func(r chi.Router) {
		r.Post("/detect", s.handleDetect)
		r.Get("/health", s.handleContentHealth)
	})

	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", s.handleCacheStats)
		r.Delete("/{key}", s.handleCacheDelete)
	})

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)
	r.Handle("/metrics", metrics.Handler())

	return r
}

// Start starts serving requests.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.srv.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("HTTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
