package middleware

import (
	"net/http"

	"github.com/frahmantamala/pennytrack/pkg/logger"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags the request logger with the caller's request id, or a new
// one, and echoes it back.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "request_id", requestID)

		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
