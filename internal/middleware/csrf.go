package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/smartnotes/smartnotes/internal/auth"
)

// CSRF token transport names.
const (
	DefaultCSRFCookieName = "csrftoken"
	CSRFFormField         = "csrfmiddlewaretoken"
	CSRFHeader            = "X-CSRFToken"
	csrfCookieMaxAge      = 365 * 24 * time.Hour
)

// CSRFConfig holds configuration for the CSRF middleware.
type CSRFConfig struct {
	Logger     *slog.Logger
	CookieName string
	Secure     bool
	// Failure renders the rejection; plain 403 if nil.
	Failure http.Handler
}

// CSRF enforces a double-submit token on unsafe methods. Every request gets
// a token in its context for forms to embed; POST, PUT, PATCH and DELETE must
// echo the cookie value in the form field or header.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	name := cfg.CookieName
	if name == "" {
		name = DefaultCSRFCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieToken string
			if c, err := r.Cookie(name); err == nil && auth.ValidCSRFToken(c.Value) {
				cookieToken = c.Value
			}

			token := cookieToken
			if token == "" {
				fresh, err := auth.NewCSRFToken()
				if err != nil {
					cfg.Logger.Error("csrf token generation failed", slog.String("error", err.Error()))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				token = fresh
				http.SetCookie(w, &http.Cookie{
					Name:     name,
					Value:    token,
					Path:     "/",
					MaxAge:   int(csrfCookieMaxAge.Seconds()),
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if !isSafeMethod(r.Method) {
				submitted := r.Header.Get(CSRFHeader)
				if submitted == "" {
					submitted = r.PostFormValue(CSRFFormField)
				}
				if cookieToken == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(cookieToken)) != 1 {
					cfg.Logger.Warn("csrf check failed",
						slog.String("reason", csrfFailureReason(cookieToken, submitted)),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					if cfg.Failure != nil {
						cfg.Failure.ServeHTTP(w, r)
						return
					}
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}

			ctx := auth.ContextWithCSRFToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func csrfFailureReason(cookieToken, submitted string) string {
	switch {
	case cookieToken == "":
		return "cookie_missing"
	case submitted == "":
		return "token_missing"
	default:
		return "token_mismatch"
	}
}
