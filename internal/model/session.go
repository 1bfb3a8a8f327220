package model

import "time"

// Session is a server-side login session keyed by an opaque cookie value.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// AuthContext holds the authenticated identity for a request.
// This is injected into the request context by the session middleware.
type AuthContext struct {
	SessionID string
	UserID    string
	Username  string
	IsStaff   bool
}
