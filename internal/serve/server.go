// Package serve exposes the redaction engine over HTTP: redact/restore
// endpoints, health probes, and a Prometheus metrics page.
package serve

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Dicklesworthstone/redactd/internal/engine"
	"github.com/Dicklesworthstone/redactd/internal/logging"
	"github.com/Dicklesworthstone/redactd/internal/metrics"
)

// Config configures the HTTP server.
type Config struct {
	// Engine runs redact/restore. Required.
	Engine *engine.Engine

	// ListenAddr is the bind address, e.g. ":8742".
	ListenAddr string

	// Version is reported by the detail health endpoint.
	Version string

	// RateLimitPerMinute caps requests per client IP. 0 disables limiting.
	RateLimitPerMinute int

	// CacheSize and CacheTTL bound the redact result cache. CacheSize 0
	// disables caching.
	CacheSize int
	CacheTTL  time.Duration

	// Wordlists supplies server-side always-redact/ignore lists. Optional.
	Wordlists *WordlistStore

	// ModelLoaded reports statistical detector readiness for health checks.
	// Nil means no statistical detectors are configured.
	ModelLoaded func() bool

	Logger  *log.Logger
	Metrics *metrics.Collector
}

// Server wires the engine into HTTP handlers.
type Server struct {
	engine      *engine.Engine
	version     string
	wordlists   *WordlistStore
	modelLoaded func() bool
	limiter     *rateLimiter
	cache       *resultCache
	logger      *log.Logger
	metrics     *metrics.Collector
	started     time.Time
	listenAddr  string
}

// New builds a Server from cfg. The engine must be set; everything else has
// a workable zero value.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	col := cfg.Metrics
	if col == nil {
		col = metrics.NewCollector()
	}

	var limiter *rateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = newRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	var cache *resultCache
	if cfg.CacheSize > 0 {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		cache = newResultCache(cfg.CacheSize, ttl)
	}

	return &Server{
		engine:      cfg.Engine,
		version:     cfg.Version,
		wordlists:   cfg.Wordlists,
		modelLoaded: cfg.ModelLoaded,
		limiter:     limiter,
		cache:       cache,
		logger:      logger,
		metrics:     col,
		started:     time.Now(),
		listenAddr:  cfg.ListenAddr,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestID)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/redact", s.handleRedact)
			r.Post("/restore", s.handleRestore)
		})
		r.Get("/health", s.handleHealth)
		r.Get("/health/detail", s.handleHealthDetail)
	})
	r.Get("/metrics", s.handleMetrics)

	return r
}

// ListenAndServe runs the server until ctx is canceled, then drains with a
// short grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", s.listenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Warmup loads the statistical models so the first request is fast. Failure
// is logged, not fatal: the engine degrades to pattern-only.
func (s *Server) Warmup(ctx context.Context) {
	if err := s.engine.Warmup(ctx); err != nil {
		s.logger.Warn("model warmup failed, running pattern-only until models load", "err", err)
		return
	}
	s.logger.Info("models warmed up")
}
