package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mergington/activity-registry/internal/api"
	"github.com/mergington/activity-registry/internal/config"
	"github.com/mergington/activity-registry/internal/service"
	"github.com/mergington/activity-registry/internal/service/inmemory"
	"github.com/mergington/activity-registry/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// ActivityAppOptions is a function that configures the activity app builder
type ActivityAppOptions func(*activityAppConfig) error

// activityAppConfig collects everything needed to build an ActivityApp.
// Component overrides are primarily for testing.
type activityAppConfig struct {
	config *config.Config

	activityService service.ActivityService
	telemetry       *telemetry.Telemetry

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...ActivityAppOptions) (*activityAppConfig, error) {
	cfg := &activityAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = config.Default()
	}

	return cfg, nil
}

// NewActivityApp builds the application from the given options
func NewActivityApp(
	ctx context.Context,
	opts ...ActivityAppOptions,
) (*ActivityApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	activityService, err := buildServiceComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, activityService)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	return &ActivityApp{
		config: cfg.config,
		components: &AppComponents{
			ActivityService: activityService,
			Telemetry:       cfg.telemetry,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ActivityAppOptions {
	return func(cfg *activityAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) ActivityAppOptions {
	return func(cfg *activityAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ActivityAppOptions {
	return func(cfg *activityAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRequestTimeout sets the per-request timeout applied by the default middlewares
func WithRequestTimeout(d time.Duration) ActivityAppOptions {
	return func(cfg *activityAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive, got %s", d)
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithActivityService allows injecting a custom activity service (for testing)
func WithActivityService(svc service.ActivityService) ActivityAppOptions {
	return func(cfg *activityAppConfig) error {
		cfg.activityService = svc
		return nil
	}
}

// WithTelemetry wires tracing, metrics and the optional Prometheus endpoint.
// The app shuts the telemetry down when it stops.
func WithTelemetry(t *telemetry.Telemetry) ActivityAppOptions {
	return func(cfg *activityAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// buildServiceComponents builds the in-memory registry from the seed catalog
func buildServiceComponents(
	ctx context.Context,
	b *activityAppConfig,
) (service.ActivityService, error) {
	if b.activityService != nil {
		return b.activityService, nil
	}

	slog.Info("Initializing activity registry", "registry", b.config.GetRegistryName())

	opts := []inmemory.Option{
		inmemory.WithActivities(b.config.Catalog()),
		inmemory.WithCapacityEnforcement(b.config.CapacityEnforced()),
	}
	if b.telemetry != nil {
		opts = append(opts,
			inmemory.WithTracerProvider(b.telemetry.TracerProvider()),
			inmemory.WithMeterProvider(b.telemetry.MeterProvider()),
		)
	}

	svc, err := inmemory.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity service: %w", err)
	}

	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *activityAppConfig,
	svc service.ActivityService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	serverOpts := []api.ServerOption{}

	// Telemetry middlewares go first so they see every request
	if b.telemetry != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{
			telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
			metricsMiddleware,
		}, b.middlewares...)

		if h := b.telemetry.MetricsHandler(); h != nil {
			serverOpts = append(serverOpts, api.WithMetricsHandler(h))
			slog.Info("Prometheus metrics endpoint enabled", "path", "/metrics")
		}
	}

	serverOpts = append(serverOpts, api.WithMiddlewares(b.middlewares...))
	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
