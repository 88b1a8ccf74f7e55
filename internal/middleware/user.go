package middleware

import (
	"context"
	"net/http"
	"strconv"
)

const (
	// UserIDHeader carries the authenticated user's ID. It is expected to be
	// set by the authenticating proxy in front of this service.
	UserIDHeader = "X-User-ID"

	// UserIDContextKey is the context key for the authenticated user ID
	UserIDContextKey contextKey = "user_id"
)

// WithUser extracts the user ID from the X-User-ID header and stores it in
// the request context. Requests without a valid header pass through
// unauthenticated; handlers that require identity reject them.
func WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || id <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, int32(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) (int32, bool) {
	id, ok := ctx.Value(UserIDContextKey).(int32)
	return id, ok
}
