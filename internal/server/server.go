package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"hello-mcp-go/internal/greeting"
	"hello-mcp-go/internal/mcp"
	"hello-mcp-go/internal/session"
	"hello-mcp-go/internal/telemetry"
	"hello-mcp-go/internal/tools"
	"hello-mcp-go/internal/tools/greeter"
)

// Config contains the server configuration.
type Config struct {
	ServerInfo      mcp.Implementation
	SessionTimeout  time.Duration
	CleanupInterval time.Duration
	RequireSession  bool
	MetricsInterval time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		ServerInfo:      mcp.Implementation{Name: "hello-mcp", Version: "dev"},
		SessionTimeout:  time.Hour,
		CleanupInterval: 5 * time.Minute,
		RequireSession:  true,
		MetricsInterval: 15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
	}
}

const instructions = "Greeting tools: hello greets a name in one of the languages from list_languages; " +
	"custom_greeting fills {placeholders} in a template."

// Server hosts the greeting tools over stdio or HTTP.
type Server struct {
	cfg       Config
	logger    zerolog.Logger
	service   *greeting.Service
	metrics   *telemetry.Metrics
	registry  *tools.Registry
	handler   *mcp.Handler
	store     *session.MemoryStore
	sessions  session.SessionManager
	cleanup   *session.CleanupService
	collector *telemetry.SystemMetricsCollector
	router    http.Handler

	shutdownOnce sync.Once
}

// New wires the greeting service into a tool registry, MCP handler and
// HTTP router.
func New(cfg Config, svc *greeting.Service, logger zerolog.Logger) (*Server, error) {
	registry := tools.NewRegistry()
	if err := greeter.Register(registry, svc); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	defs := registry.Definitions()
	for _, def := range defs {
		logger.Debug().Str("tool", def.Name).Msg("Registered tool")
	}
	logger.Debug().Int("count", len(defs)).Msg("Tools registered")

	metrics := telemetry.NewMetrics()
	handler := mcp.NewHandler(telemetry.NewToolRegistryWrapper(registry, metrics), mcp.HandlerConfig{
		ServerInfo:   cfg.ServerInfo,
		Instructions: instructions,
		Metrics:      metrics,
	}, logger)

	store := session.NewMemoryStore(logger)
	sessions := telemetry.NewSessionManagerWrapper(
		session.NewDefaultSessionManager(store, session.ManagerConfig{SessionTimeout: cfg.SessionTimeout}, logger),
		metrics,
	)

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		service:   svc,
		metrics:   metrics,
		registry:  registry,
		handler:   handler,
		store:     store,
		sessions:  sessions,
		cleanup:   session.NewCleanupService(sessions, session.CleanupConfig{CleanupInterval: cfg.CleanupInterval}, logger),
		collector: telemetry.NewSystemMetricsCollector(metrics, logger, cfg.MetricsInterval),
	}
	s.router = s.routes()

	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(telemetry.HTTPMetricsMiddleware(s.metrics, "/metrics"))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", session.HeaderName, "Mcp-Protocol-Version"},
		ExposedHeaders:   []string{"Content-Type", session.HeaderName},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	r.Get("/sessions/stats", s.sessionStats)

	mcpHTTP := mcp.NewHTTPHandler(s.handler, s.sessions, s.cfg.RequireSession, s.logger)
	r.With(session.NewSessionMiddleware(s.sessions, s.logger).Handler()).Handle("/mcp", mcpHTTP)

	return r
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Handler returns the MCP message handler.
func (s *Server) Handler() *mcp.Handler {
	return s.handler
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":    "ok",
		"tools":     len(s.registry.List()),
		"languages": s.service.Languages().Len(),
	})
}

func (s *Server) sessionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.sessions.GetSessionStats(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get session stats")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]any{"error": err.Error(), "code": session.Code(err)})
		return
	}
	render.JSON(w, r, stats)
}

// ServeStdio runs the MCP loop over r and w until EOF or ctx is done.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	s.logger.Info().Msg("Starting Hello MCP server on stdio")
	return s.handler.ServeStdio(ctx, r, w)
}

// ListenAndServe serves HTTP on addr until ctx is done, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.cleanup.Start(ctx)
	go s.collector.Start(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting Hello MCP server on HTTP")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Shutdown releases background resources and logs the shutdown notice.
// Only the first call has any effect.
func (s *Server) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		s.cleanup.Stop()
		s.collector.Stop()
		if err := s.store.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close session store")
		}
		s.logger.Info().Msg("Hello MCP server shutting down gracefully")
	})
}
