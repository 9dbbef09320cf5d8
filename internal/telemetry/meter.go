package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultMetricsInterval is how often metrics are pushed to the OTLP collector
const DefaultMetricsInterval = 60 * time.Second

// NewMeterProvider returns an SDK meter provider, or a no-op provider when mc
// is nil or disabled. The SDK provider pushes over OTLP/HTTP unless
// DisableOTLP is set, and also serves a Prometheus reader when Prometheus is
// set. It is installed as the global provider. Callers must shut it down.
func NewMeterProvider(ctx context.Context, mc *MetricsConfig, opts ...ProviderOption) (metric.MeterProvider, error) {
	if mc == nil || !mc.Enabled {
		slog.Debug("Metrics disabled")
		return noop.NewMeterProvider(), nil
	}

	cfg := newProviderConfig(opts)
	res, err := cfg.resource(ctx)
	if err != nil {
		return nil, err
	}

	readers, err := metricReaders(ctx, cfg, mc)
	if err != nil {
		return nil, err
	}

	providerOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		providerOpts = append(providerOpts, sdkmetric.WithReader(r))
	}
	mp := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(mp)

	slog.Info("Metrics initialized",
		"otlp", !mc.DisableOTLP,
		"endpoint", cfg.endpoint,
		"prometheus", mc.Prometheus,
	)
	return mp, nil
}

// metricReaders builds one reader per enabled exporter
func metricReaders(ctx context.Context, cfg *providerConfig, mc *MetricsConfig) ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if !mc.DisableOTLP {
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.endpoint)}
		if cfg.insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(DefaultMetricsInterval)))
	}

	if mc.Prometheus {
		var promOpts []otelprom.Option
		if cfg.registerer != nil {
			promOpts = append(promOpts, otelprom.WithRegisterer(cfg.registerer))
		}
		reader, err := otelprom.New(promOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		readers = append(readers, reader)
	}

	return readers, nil
}
