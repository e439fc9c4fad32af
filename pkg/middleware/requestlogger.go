package middleware

import (
	"log/slog"
	"net/http"

	"github.com/playnest/marketplace/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, pre-enriched
// with correlation_id, user_id, trace_id, and span_id. Handlers pick it up
// with logger.FromContext so every line they emit already carries the
// request identity.
//
// Mount it after RequestLogging (correlation ID) and Tracing (span context);
// Auth runs later, so the user ID comes from the X-User-ID header the edge
// proxy sets rather than from claims.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := UserIDFromContext(ctx)
			if userID == "" {
				userID = r.Header.Get("X-User-ID")
			}
			if userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
