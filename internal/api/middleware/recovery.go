package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/citynav/citynav/internal/api/models"
)

// Recovery turns a panicking handler into a 500 problem, marks the request
// span as failed and logs the stack with the route that blew up.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					panic(rec)
				}

				span := trace.SpanFromContext(r.Context())
				span.RecordError(fmt.Errorf("panic: %v", rec))
				span.SetStatus(codes.Error, "handler panicked")

				requestID := GetRequestID(r.Context())
				log.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("route", routePattern(r)).
					Interface("panic", rec).
					Str("stack", string(debug.Stack())).
					Msg("handler panicked, returning internal error")

				models.NewInternalError(requestID, "The request could not be completed. Retry shortly or contact the CityNav operators with this trace ID.").
					WithInstance(r.URL.Path).
					Write(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
