package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/citynav/citynav/internal/api/models"
)

// APIKeyHeader carries the admin API key.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey guards admin endpoints with a static key sent in X-API-Key
// or as a bearer token. An empty key disables the endpoints entirely.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				problem := models.NewNotFound(GetRequestID(r.Context()), "admin API is disabled")
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}

			presented := presentedKey(r)
			if presented == "" {
				writeUnauthorized(w, r, "missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				writeUnauthorized(w, r, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if k := r.Header.Get(APIKeyHeader); k != "" {
		return k
	}
	const bearerPrefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}
	return ""
}

// writeUnauthorized is local to avoid an import cycle with the response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	w.Header().Set("WWW-Authenticate", `Bearer realm="citynav-admin"`)
	problem.Write(w)
}
