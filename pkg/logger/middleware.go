package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// correlationIDKey marks the context storage slot for the request identifier.
type correlationIDKey struct{}

// CorrelationIDFromContext returns the request identifier stored in ctx, or an empty string when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}

	return ""
}

// WithCorrelationID stores a request identifier in ctx for downstream log enrichment.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// Middleware injects a request identifier into the request context before delegating to the next handler.
// An incoming X-Request-ID header is honored so identifiers survive proxy hops.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Request-ID")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", correlationID)
		next.ServeHTTP(w, r.WithContext(WithCorrelationID(r.Context(), correlationID)))
	})
}
