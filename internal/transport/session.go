package transport

import (
	"context"
	"net/http"
)

type sessionKey struct{}

// WithSession returns ctx carrying the session identifier.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the session identifier from context, if present.
func SessionFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionKey{}).(string)
	return sessionID, ok
}

// DefaultSessionMiddleware acts as sessionID for every request. It replaces
// AuthMiddleware when auth is disabled.
func DefaultSessionMiddleware(sessionID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sessionID)))
		})
	}
}
