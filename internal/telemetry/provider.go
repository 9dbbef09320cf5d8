package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const unknownVersion = "unknown"

// ProviderOption configures NewTracerProvider and NewMeterProvider.
// Options that only concern one kind of provider are ignored by the other.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	serviceName    string
	serviceVersion string
	endpoint       string
	insecure       bool

	spanExporter sdktrace.SpanExporter
	registerer   prometheus.Registerer
}

func newProviderConfig(opts []ProviderOption) *providerConfig {
	cfg := &providerConfig{
		serviceName:    DefaultServiceName,
		serviceVersion: unknownVersion,
		endpoint:       DefaultEndpoint,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithService sets the service.name and service.version resource attributes
func WithService(name, version string) ProviderOption {
	return func(cfg *providerConfig) {
		if name != "" {
			cfg.serviceName = name
		}
		if version != "" {
			cfg.serviceVersion = version
		}
	}
}

// WithCollector sets the OTLP/HTTP collector address ("host:port")
func WithCollector(endpoint string, insecure bool) ProviderOption {
	return func(cfg *providerConfig) {
		if endpoint != "" {
			cfg.endpoint = endpoint
		}
		cfg.insecure = insecure
	}
}

// WithSpanExporter replaces the OTLP span exporter, e.g. with an in-memory exporter in tests
func WithSpanExporter(exporter sdktrace.SpanExporter) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.spanExporter = exporter
	}
}

// WithPrometheusRegisterer sets where the Prometheus exporter registers its collector.
// Without it the Prometheus default registerer is used.
func WithPrometheusRegisterer(reg prometheus.Registerer) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.registerer = reg
	}
}

// resource describes this process. resource.New is used instead of
// resource.Default to avoid schema URL conflicts.
func (cfg *providerConfig) resource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.serviceName),
			semconv.ServiceVersion(cfg.serviceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
