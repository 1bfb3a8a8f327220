package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/smartnotes/smartnotes/internal/auth"
)

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logger returns a middleware that logs one structured line per request.
// Query strings, form bodies and cookies are never logged.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			// Inner middleware fills this in once the session is resolved.
			identity := &loggedIdentity{}
			next.ServeHTTP(wrapped, r.WithContext(withLoggedIdentity(r.Context(), identity)))

			duration := time.Since(start)

			attrs := []slog.Attr{
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", wrapped.status),
				slog.Int("bytes", wrapped.bytes),
				slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			}
			if identity.userID != "" {
				attrs = append(attrs, slog.String("user_id", identity.userID))
			}

			level := slog.LevelInfo
			if wrapped.status >= 500 {
				level = slog.LevelError
			} else if wrapped.status >= 400 {
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "http request", attrs...)
		})
	}
}

type loggedIdentity struct {
	userID string
}

const loggedIdentityKey contextKey = "logged_identity"

func withLoggedIdentity(ctx context.Context, id *loggedIdentity) context.Context {
	return context.WithValue(ctx, loggedIdentityKey, id)
}

// noteIdentity records the authenticated user for the request log line.
func noteIdentity(r *http.Request) {
	id, ok := r.Context().Value(loggedIdentityKey).(*loggedIdentity)
	if !ok {
		return
	}
	if ac := auth.AuthFromContext(r.Context()); ac != nil {
		id.userID = ac.UserID
	}
}
