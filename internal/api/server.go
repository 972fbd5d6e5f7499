// Package api provides the HTTP presentation layer: status, listing, log,
// settings and the live event stream.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/foldermon/foldermon/internal/ratelimit"
	"github.com/foldermon/foldermon/internal/sse"
	"github.com/foldermon/foldermon/internal/tracker"
)

// Monitor is the tracker surface the API reads and controls.
type Monitor interface {
	Snapshot() tracker.Snapshot
	SetNotifyEnabled(enabled bool)
	Retarget(folder string) error
}

// WatchInfo describes the watch subscription, which may be absent when setup failed.
type WatchInfo interface {
	Active() bool
	Root() string
	Backend() string
	Session() string
	// Err is the setup failure, if any.
	Err() error
}

// Options configures the HTTP layer.
type Options struct {
	Name           string
	Version        string
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	monitor    Monitor
	watch      WatchInfo
	sseManager *sse.Manager
	sseHandler http.Handler
	metrics    http.Handler
	limiter    *ratelimit.KeyedRateLimiter
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
	opts       Options
}

// NewServer creates a new HTTP server with all routes configured.
// sseManager and metrics may be nil.
func NewServer(
	monitor Monitor,
	watch WatchInfo,
	sseManager *sse.Manager,
	metrics http.Handler,
	logger *slog.Logger,
	opts Options,
) *Server {
	if opts.Name == "" {
		opts.Name = "foldermon"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 40
	}

	s := &Server{
		monitor:    monitor,
		watch:      watch,
		sseManager: sseManager,
		metrics:    metrics,
		limiter:    ratelimit.New(opts.RateLimit, opts.RateBurst),
		router:     chi.NewRouter(),
		logger:     logger,
		opts:       opts,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig(opts.Name+" API", opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, used by tests.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases the rate limiter.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerStatusRoutes()
	s.registerSettingsRoutes()

	// Raw handlers stay outside huma: streaming and exposition formats.
	if s.sseHandler != nil {
		s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics)
	}
}

// requestLogger logs each request at debug, and server errors at warn.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
