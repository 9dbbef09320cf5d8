package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the tracer and meter providers of the process and,
// when enabled, the Prometheus registry behind /metrics.
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	promRegistry   *prometheus.Registry
}

// Option configures New
type Option func(*telemetryConfig)

type telemetryConfig struct {
	config *Config
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(tc *telemetryConfig) {
		tc.config = cfg
	}
}

// New builds the providers described by the configuration. A nil or
// disabled configuration yields no-op providers. Call Shutdown on exit.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	tc := &telemetryConfig{}
	for _, opt := range opts {
		opt(tc)
	}
	cfg := tc.config

	if cfg == nil || !cfg.Enabled {
		slog.Debug("Telemetry disabled")
		return &Telemetry{
			tracerProvider: tracenoop.NewTracerProvider(),
			meterProvider:  noop.NewMeterProvider(),
		}, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	providerOpts := []ProviderOption{
		WithService(cfg.GetServiceName(), cfg.GetServiceVersion()),
		WithCollector(cfg.GetEndpoint(), cfg.GetInsecure()),
	}

	t := &Telemetry{}
	if cfg.PrometheusEnabled() {
		t.promRegistry = prometheus.NewRegistry()
		t.promRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		providerOpts = append(providerOpts, WithPrometheusRegisterer(t.promRegistry))
	}

	tp, err := NewTracerProvider(ctx, cfg.Tracing, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}
	t.tracerProvider = tp

	mp, err := NewMeterProvider(ctx, cfg.Metrics, providerOpts...)
	if err != nil {
		// Don't leak the tracer's batch exporter
		_ = shutdown(ctx, tp)
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}
	t.meterProvider = mp

	slog.Info("Telemetry initialized",
		"service_name", cfg.GetServiceName(),
		"service_version", cfg.GetServiceVersion(),
	)
	return t, nil
}

// TracerProvider returns the tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler returns the Prometheus scrape handler, or nil when the
// Prometheus exporter is not enabled.
func (t *Telemetry) MetricsHandler() http.Handler {
	if t.promRegistry == nil {
		return nil
	}
	return promhttp.HandlerFor(t.promRegistry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops both providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	err := errors.Join(
		wrapShutdown("tracer provider", shutdown(ctx, t.tracerProvider)),
		wrapShutdown("meter provider", shutdown(ctx, t.meterProvider)),
	)
	if err == nil {
		slog.Debug("Telemetry shut down")
	}
	return err
}

// shutdown stops SDK providers; no-op providers have nothing to stop
func shutdown(ctx context.Context, provider any) error {
	if s, ok := provider.(interface{ Shutdown(context.Context) error }); ok {
		return s.Shutdown(ctx)
	}
	return nil
}

func wrapShutdown(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to shutdown %s: %w", what, err)
}
