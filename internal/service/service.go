// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/smartnotes/smartnotes/internal/model"
)

// Service errors.
var (
	ErrNoteNotFound       = errors.New("note not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NoteStore persists notes.
type NoteStore interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNoteForOwner(ctx context.Context, id, userID string) (*model.Note, error)
	GetPublicNote(ctx context.Context, id string) (*model.Note, error)
	ListNotesByOwner(ctx context.Context, userID string, limit int) ([]*model.Note, error)
	ListAllNotes(ctx context.Context, limit int) ([]*model.Note, error)
	UpdateNote(ctx context.Context, note *model.Note) error
	ToggleNoteVisibility(ctx context.Context, id, userID string) (*model.Note, error)
	DeleteNote(ctx context.Context, id, userID string) error
	DeleteNotesByIDs(ctx context.Context, ids []string) ([]string, error)
}

// PublicNoteCache caches notes served on the public detail page.
type PublicNoteCache interface {
	GetPublicNote(ctx context.Context, id string) (*model.Note, error)
	SetPublicNote(ctx context.Context, note *model.Note, ttl time.Duration) error
	DeletePublicNote(ctx context.Context, id string) error
	IsPublicNoteNegativelyCached(ctx context.Context, id string) (bool, error)
	SetPublicNoteNegative(ctx context.Context, id string) error
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context, limit int) ([]*model.User, error)
	DeleteUser(ctx context.Context, id string) ([]string, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}
