package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/citynav/citynav/internal/api/middleware"
)

func TestRecovery_ReturnsProblem(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(zerolog.New(&buf)))
	r.Get("/v1/modes", func(http.ResponseWriter, *http.Request) {
		panic("catalog snapshot failed")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/modes", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "internal-error")
	assert.Contains(t, rec.Body.String(), `"instance":"/v1/modes"`)

	logged := buf.String()
	assert.Contains(t, logged, "handler panicked")
	assert.Contains(t, logged, "catalog snapshot failed")
	assert.Contains(t, logged, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRecovery_RepanicsAbortHandler(t *testing.T) {
	handler := middleware.Recovery(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody))
	})
}
