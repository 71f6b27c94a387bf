package core

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	CorrelationIDHeader                = "Correlation-Id"
	CorrelationIDContextKey contextKey = "correlation_id"
)

func CorrelationIDHTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		correlationID := r.Header.Get(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		ctx = context.WithValue(ctx, CorrelationIDContextKey, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLoggerHTTPMiddleware stores a request-scoped logger in the context
// so response helpers can report write failures.
func RequestLoggerHTTPMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
