package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder wraps http.ResponseWriter to capture the status code
// written by the wrapped handler, since net/http gives no other way to
// observe it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging returns a middleware that logs every request: path, method, user
// ID (empty if called before RequireAuth), status, and duration.
func Logging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start).Milliseconds()
			userID := GetUserID(r.Context()) // empty if pre-auth or unauthenticated route

			if rec.status >= 500 {
				slog.Error("request error",
					"path", r.URL.Path,
					"method", r.Method,
					"status", rec.status,
					"user_id", userID,
					"duration_ms", duration,
				)
			} else if rec.status >= 400 {
				slog.Warn("request failed",
					"path", r.URL.Path,
					"method", r.Method,
					"status", rec.status,
					"user_id", userID,
					"duration_ms", duration,
				)
			} else {
				slog.Info("request ok",
					"path", r.URL.Path,
					"method", r.Method,
					"status", rec.status,
					"user_id", userID,
					"duration_ms", duration,
				)
			}
		})
	}
}
