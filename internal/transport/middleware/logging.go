package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
)

// LoggingMiddleware logs one line per request. Bodies are never logged since
// they carry the user's financial data.
func LoggingMiddleware(lg *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			if status >= 400 && status < 500 {
				level = slog.LevelWarn
			} else if status >= 500 {
				level = slog.LevelError
			}

			lg.Log(r.Context(), level, "request",
				"request_id", ww.Header().Get(RequestIDHeader),
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", ww.BytesWritten(),
			)
		})
	}
}
