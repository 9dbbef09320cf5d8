package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// newTestTracerProvider creates a tracer provider with an in-memory exporter.
func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	handlerCalled := false
	wrapped := TracingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/create", nil))

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "created", rr.Body.String())
}

func TestTracingMiddleware_Spans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		expectedCode codes.Code
	}{
		{name: "successful signup", status: http.StatusOK, expectedCode: codes.Ok},
		{name: "duplicate signup", status: http.StatusBadRequest, expectedCode: codes.Error},
		{name: "unknown activity", status: http.StatusNotFound, expectedCode: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)

			r := chi.NewRouter()
			r.Use(TracingMiddleware(tp))
			r.Post("/activities/{activityName}/signup", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activities/Chess%20Club/signup?email=a@b.c", nil))
			require.Equal(t, tt.status, rr.Code)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]

			assert.Equal(t, "POST /activities/{activityName}/signup", span.Name)
			assert.Equal(t, tt.expectedCode, span.Status.Code)

			var foundRoute, foundStatus bool
			for _, attr := range span.Attributes {
				switch attr.Key {
				case semconv.HTTPRouteKey:
					foundRoute = true
					assert.Equal(t, "/activities/{activityName}/signup", attr.Value.AsString())
				case semconv.HTTPResponseStatusCodeKey:
					foundStatus = true
					assert.Equal(t, int64(tt.status), attr.Value.AsInt64())
				}
			}
			assert.True(t, foundRoute, "expected http.route attribute")
			assert.True(t, foundStatus, "expected http.response.status_code attribute")
		})
	}
}
