package middleware_test

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

	"github.com/citynav/citynav/internal/api/middleware"
)

func newTestMetrics(t *testing.T) (*middleware.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := middleware.NewMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return metrics, reader
}

// requestCounts returns http.server.request.total data points keyed by route and status.
func requestCounts(t *testing.T, reader *sdkmetric.ManualReader) map[[2]string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[[2]string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http.server.request.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value(attribute.Key("http.route"))
				status, _ := dp.Attributes.Value(attribute.Key("http.status_code"))
				out[[2]string{route.AsString(), status.AsString()}] += dp.Value
			}
		}
	}
	return out
}

func TestMetrics_Middleware_Success(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/test/path", http.NoBody)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Equal(t, int64(1), requestCounts(t, reader)[[2]string{"/test/path", "200"}])
}

func TestMetrics_Middleware_Error(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/routes:compute", http.NoBody)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, int64(1), requestCounts(t, reader)[[2]string{"/v1/routes:compute", "500"}])
}

func TestMetrics_Middleware_DefaultStatusCode(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	handler := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("no explicit status"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, int64(1), requestCounts(t, reader)[[2]string{"/test", "200"}])
}

func TestMetrics_Middleware_UsesRoutePattern(t *testing.T) {
	metrics, reader := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Put("/v1/admin/modes/{city}/{mode}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/v1/admin/modes/pune/bus", "/v1/admin/modes/delhi/metro"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, path, http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
	}

	counts := requestCounts(t, reader)
	assert.Equal(t, int64(2), counts[[2]string{"/v1/admin/modes/{city}/{mode}", "200"}])
	assert.Len(t, counts, 1)
}
