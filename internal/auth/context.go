package auth

import (
	"context"

	"github.com/smartnotes/smartnotes/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	authContextKey contextKey = "auth_context"
	csrfContextKey contextKey = "csrf_token"
)

// ContextWithAuth adds AuthContext to the context.
func ContextWithAuth(ctx context.Context, auth *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext retrieves AuthContext from the context.
// Returns nil for anonymous requests.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	auth, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// UserIDFromContext returns the authenticated user ID, or "" when anonymous.
func UserIDFromContext(ctx context.Context) string {
	auth := AuthFromContext(ctx)
	if auth == nil {
		return ""
	}
	return auth.UserID
}

// IsAuthenticated reports whether the request carries a logged-in user.
func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}

// ContextWithCSRFToken stores the CSRF token to embed in rendered forms.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfContextKey, token)
}

// CSRFTokenFromContext returns the CSRF token for the request, or "".
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfContextKey).(string)
	return token
}
