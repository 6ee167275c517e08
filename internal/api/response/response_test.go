package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/citynav/citynav/internal/api/middleware"
	"github.com/citynav/citynav/internal/api/models"
	"github.com/citynav/citynav/internal/api/response"
)

// requestWithContext creates an HTTP request that has been processed by the RequestID middleware
// to populate the context with a request ID.
func requestWithContext(t *testing.T, method, path string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	rec := httptest.NewRecorder()

	var processedReq *http.Request
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		processedReq = r
	}))
	handler.ServeHTTP(rec, req)

	return processedReq, httptest.NewRecorder()
}

func TestJSON_IncludesRequestID(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/test")

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	requestID := rec.Header().Get("X-Request-Id")
	if !strings.HasPrefix(requestID, "req_") {
		t.Errorf("expected generated request ID, got %q", requestID)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", contentType)
	}
}

func TestJSON_WithoutRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	if requestID := rec.Header().Get("X-Request-Id"); requestID != "" {
		t.Errorf("expected no X-Request-Id header when not in context, got %q", requestID)
	}
}

func TestJSON_NilData(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodGet, "/test")

	response.JSON(rec, req, http.StatusOK, nil)

	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestBadRequest_IncludesTraceID(t *testing.T) {
	req, rec := requestWithContext(t, http.MethodPost, "/v1/routes:compute")

	response.BadRequest(rec, req, "invalid source coordinates", []models.FieldError{
		{Field: "source", Message: "latitude out of range"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json content type, got %q", ct)
	}

	var problem models.Problem
	if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}

	if problem.TraceID == "" {
		t.Error("expected traceId to be set")
	}
	if problem.TraceID != rec.Header().Get("X-Request-Id") {
		t.Errorf("traceId %q does not match X-Request-Id %q", problem.TraceID, rec.Header().Get("X-Request-Id"))
	}
	if problem.Instance != "/v1/routes:compute" {
		t.Errorf("expected instance /v1/routes:compute, got %q", problem.Instance)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "source" {
		t.Errorf("expected one field error for source, got %+v", problem.Errors)
	}
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name    string
		write   func(w http.ResponseWriter, r *http.Request)
		status  int
		typeURI string
	}{
		{
			name:    "unauthorized",
			write:   func(w http.ResponseWriter, r *http.Request) { response.Unauthorized(w, r, "missing API key") },
			status:  http.StatusUnauthorized,
			typeURI: models.ProblemTypeUnauthorized,
		},
		{
			name:    "not found",
			write:   func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "unknown city") },
			status:  http.StatusNotFound,
			typeURI: models.ProblemTypeNotFound,
		},
		{
			name:    "internal error",
			write:   func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "boom") },
			status:  http.StatusInternalServerError,
			typeURI: models.ProblemTypeInternal,
		},
		{
			name:    "service unavailable",
			write:   func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "database down") },
			status:  http.StatusServiceUnavailable,
			typeURI: models.ProblemTypeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := requestWithContext(t, http.MethodGet, "/v1/anything")

			tt.write(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}

			var problem models.Problem
			if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
				t.Fatalf("failed to decode problem: %v", err)
			}
			if problem.Type != tt.typeURI {
				t.Errorf("expected type %q, got %q", tt.typeURI, problem.Type)
			}
			if problem.Status != tt.status {
				t.Errorf("expected body status %d, got %d", tt.status, problem.Status)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"metro"}`, want: "metro"},
		{name: "unknown field", body: `{"name":"metro","extra":1}`, wantErr: true},
		{name: "trailing data", body: `{"name":"metro"}{"name":"bus"}`, wantErr: true},
		{name: "malformed", body: `{"name":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var got payload
			err := response.DecodeJSON(rec, req, &got)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("expected name %q, got %q", tt.want, got.Name)
			}
		})
	}
}

func TestDecodeJSON_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	var dst map[string]any
	err := response.DecodeJSON(rec, req, &dst)
	if !errors.Is(err, response.ErrEmptyBody) {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", response.MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var dst map[string]any
	err := response.DecodeJSON(rec, req, &dst)

	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		t.Errorf("expected MaxBytesError, got %v", err)
	}
}
