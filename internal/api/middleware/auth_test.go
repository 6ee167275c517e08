package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citynav/citynav/internal/api/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAPIKey(t *testing.T) {
	const key = "s3cret-admin-key"

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "guess", http.StatusUnauthorized},
		{"prefix of key", "X-API-Key", "s3cret", http.StatusUnauthorized},
		{"api key header", "X-API-Key", key, http.StatusOK},
		{"bearer token", "Authorization", "Bearer " + key, http.StatusOK},
		{"lowercase bearer", "Authorization", "bearer " + key, http.StatusOK},
		{"basic auth scheme", "Authorization", "Basic " + key, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequireAPIKey(key)(okHandler())

			req := httptest.NewRequest(http.MethodPut, "/v1/admin/modes/pune/bus", http.NoBody)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
}

func TestRequireAPIKey_DisabledWhenEmpty(t *testing.T) {
	handler := middleware.RequireAPIKey("")(okHandler())

	req := httptest.NewRequest(http.MethodPut, "/v1/admin/modes/pune/bus", http.NoBody)
	req.Header.Set("X-API-Key", "")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin API is disabled")
}
