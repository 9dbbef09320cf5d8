package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewHTTPMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewHTTPMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates instruments with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewHTTPMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.requestDuration)
		assert.NotNil(t, metrics.requestsTotal)
		assert.NotNil(t, metrics.activeRequests)
	})
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	t.Parallel()

	t.Run("passes through when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *HTTPMetrics
		wrapped := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusTeapot, rr.Code)
	})

	t.Run("labels requests with the route pattern", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		middleware, err := MetricsMiddleware(mp)
		require.NoError(t, err)

		r := chi.NewRouter()
		r.Use(middleware)
		r.Post("/activities/{activityName}/signup", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activities/Chess%20Club/signup", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		m := findMetric(t, collect(t, reader), "activity_registry_http_requests_total")
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)

		dp := sum.DataPoints[0]
		assert.Equal(t, int64(1), dp.Value)
		route, _ := dp.Attributes.Value(attribute.Key("route"))
		assert.Equal(t, "/activities/{activityName}/signup", route.AsString())
		status, _ := dp.Attributes.Value(attribute.Key("status_code"))
		assert.Equal(t, "400", status.AsString())
	})

	t.Run("unmatched routes use a constant label", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
		assert.Equal(t, unknownRoute, routePattern(req))
	})
}

func TestMetricsMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	middleware, err := MetricsMiddleware(nil)
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rr := httptest.NewRecorder()
	middleware(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
