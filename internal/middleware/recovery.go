package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer is a middleware that recovers from panics.
// It logs the panic and serves fallback, or a plain 500 if fallback is nil.
func Recoverer(logger *slog.Logger, fallback http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				if fallback != nil {
					fallback.ServeHTTP(w, r)
					return
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
