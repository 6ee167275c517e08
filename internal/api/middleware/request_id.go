// Package middleware provides the HTTP middleware chain of the CityNav API.
package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-Id"

	// CorrelationIDHeader is accepted from clients that already tag their
	// calls, such as the web app's trip planner.
	CorrelationIDHeader = "X-Correlation-Id"

	requestIDPrefix = "req_"
)

type requestIDKey struct{}

// acceptedRequestID bounds caller-supplied IDs so they are safe to log and echo.
var acceptedRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestID picks the caller's X-Request-Id, then X-Correlation-Id, and
// otherwise generates req_<uuid>. Invalid values are replaced. The ID is
// stored in the context and echoed as X-Request-Id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := incomingRequestID(r)

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func incomingRequestID(r *http.Request) string {
	for _, header := range []string{RequestIDHeader, CorrelationIDHeader} {
		if id := r.Header.Get(header); acceptedRequestID.MatchString(id) {
			return id
		}
	}
	return requestIDPrefix + uuid.NewString()
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
