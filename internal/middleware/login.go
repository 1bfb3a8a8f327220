package middleware

import (
	"net/http"
	"net/url"

	"github.com/smartnotes/smartnotes/internal/auth"
)

// RequireLogin redirects anonymous requests to loginURL with a next parameter.
// Must be applied after Session middleware.
func RequireLogin(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.IsAuthenticated(r.Context()) {
				RedirectToLogin(w, r, loginURL)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff allows only staff users. Anonymous requests are redirected to
// loginURL; signed-in non-staff users get forbidden.
func RequireStaff(loginURL string, forbidden http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				RedirectToLogin(w, r, loginURL)
				return
			}
			if !authCtx.IsStaff {
				if forbidden == nil {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
				forbidden.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectToLogin sends a 302 to loginURL?next=<current path>.
func RedirectToLogin(w http.ResponseWriter, r *http.Request, loginURL string) {
	target := loginURL
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		target += "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}
