// Package api provides the REST API server for the activity registry.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mergington/activity-registry/internal/api/health"
	"github.com/mergington/activity-registry/internal/api/static"
	v1 "github.com/mergington/activity-registry/internal/api/v1"
	"github.com/mergington/activity-registry/internal/service"
)

// ServerOption configures the registry API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h at /metrics. A nil handler leaves the route unregistered.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// NewServer creates and configures the HTTP router with the given service and options
func NewServer(svc service.ActivityService, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/", static.RedirectToIndex)
	r.Mount("/static", static.Handler())
	r.Mount("/", health.Router(svc))
	r.Mount("/activities", v1.Router(svc))

	if cfg.metricsHandler != nil {
		r.Handle("/metrics", cfg.metricsHandler)
	}

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
