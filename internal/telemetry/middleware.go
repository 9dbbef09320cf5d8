package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetricsMeterName names the meter behind the request instruments
const HTTPMetricsMeterName = "github.com/mergington/activity-registry/http"

// unmatched paths share one label so clients cannot grow the series count
const unknownRoute = "unknown_route"

// latency buckets in seconds; the registry is in-memory so most requests
// land in the low millisecond range
var requestDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HTTPMetrics records request count, latency and in-flight requests.
// A nil *HTTPMetrics records nothing.
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics registers the request instruments on provider.
// It returns nil, nil for a nil provider.
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(HTTPMetricsMeterName)

	m := &HTTPMetrics{}
	var err error
	if m.requestDuration, err = meter.Float64Histogram(
		"activity_registry_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(requestDurationBuckets...),
	); err != nil {
		return nil, err
	}
	if m.requestsTotal, err = meter.Int64Counter(
		"activity_registry_http_requests_total",
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.activeRequests, err = meter.Int64UpDownCounter(
		"activity_registry_http_active_requests",
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// Middleware wraps next with request instrumentation
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// keep the original ctx; chi's timeout may cancel r.Context() later
		ctx := r.Context()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.activeRequests.Add(ctx, 1)
		defer m.activeRequests.Add(ctx, -1)

		began := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(began)

		labels := metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", routePattern(r)),
			attribute.String("status_code", strconv.Itoa(ww.Status())),
		)
		m.requestDuration.Record(ctx, elapsed.Seconds(), labels)
		m.requestsTotal.Add(ctx, 1, labels)
	})
}

// routePattern is the chi pattern that matched r, e.g.
// "/activities/{activityName}/signup", or unknownRoute.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unknownRoute
}

// MetricsMiddleware is NewHTTPMetrics in chi middleware form
func MetricsMiddleware(provider metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	metrics, err := NewHTTPMetrics(provider)
	if err != nil {
		return nil, err
	}
	return metrics.Middleware, nil
}
