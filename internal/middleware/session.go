package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/smartnotes/smartnotes/internal/auth"
	"github.com/smartnotes/smartnotes/internal/model"
	"github.com/smartnotes/smartnotes/internal/service"
)

// DefaultSessionCookieName is the cookie carrying the session ID.
const DefaultSessionCookieName = "sessionid"

// SessionResolver maps a session ID to an identity.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*model.AuthContext, error)
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger     *slog.Logger
	Resolver   SessionResolver
	CookieName string
	Secure     bool
}

func (c SessionConfig) cookieName() string {
	if c.CookieName == "" {
		return DefaultSessionCookieName
	}
	return c.CookieName
}

// Session loads the identity behind the session cookie, if any, into the
// request context. Anonymous requests pass through unchanged.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cfg.cookieName())
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			authCtx, err := cfg.Resolver.ResolveSession(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, service.ErrSessionNotFound) {
					ClearSessionCookie(w, cfg.CookieName, cfg.Secure)
				} else {
					cfg.Logger.Error("session lookup failed",
						slog.String("error", err.Error()),
						slog.String("session", auth.QuickHash(cookie.Value)),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			r = r.WithContext(auth.ContextWithAuth(r.Context(), authCtx))
			noteIdentity(r)
			next.ServeHTTP(w, r)
		})
	}
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(w http.ResponseWriter, name string, session *model.Session, secure bool) {
	if name == "" {
		name = DefaultSessionCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, name string, secure bool) {
	if name == "" {
		name = DefaultSessionCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
