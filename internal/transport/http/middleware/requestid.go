package middleware

import (
	"context"
	"net/http"

	"github.com/ums-dashboard/bff/internal/pkg/id"
)

const requestIDKey contextKey = "request-id"

// RequestIDHeader is echoed back to the browser for log correlation.
const RequestIDHeader = "X-Request-Id"

// RequestID stamps each request with a fresh ULID unless the caller already
// supplied one, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(RequestIDHeader)
		if rid == "" {
			rid = id.New()
		}
		w.Header().Set(RequestIDHeader, rid)
		ctx := context.WithValue(r.Context(), requestIDKey, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext extracts the request id injected by RequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	rid, ok := ctx.Value(requestIDKey).(string)
	return rid, ok
}
