package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NewTracerProvider returns an SDK tracer provider exporting over OTLP/HTTP,
// or a no-op provider when tc is nil or disabled. The SDK provider is also
// installed as the global provider. Callers must shut it down.
func NewTracerProvider(ctx context.Context, tc *TracingConfig, opts ...ProviderOption) (trace.TracerProvider, error) {
	if tc == nil || !tc.Enabled {
		slog.Debug("Tracing disabled")
		return noop.NewTracerProvider(), nil
	}

	cfg := newProviderConfig(opts)
	res, err := cfg.resource(ctx)
	if err != nil {
		return nil, err
	}

	exporter := cfg.spanExporter
	if exporter == nil {
		exporter, err = newOTLPSpanExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	sampling := tc.GetSampling()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampling))),
	)

	otel.SetTracerProvider(tp)
	// W3C trace context lets a fronting proxy join its trace with ours
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.insecure {
		slog.Warn("Spans are exported over plain HTTP", "endpoint", cfg.endpoint)
	}
	slog.Info("Tracing initialized", "endpoint", cfg.endpoint, "sampling_ratio", sampling)

	return tp, nil
}

func newOTLPSpanExporter(ctx context.Context, cfg *providerConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.endpoint)}
	if cfg.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}
