// Package servicetest provides in-memory stores for exercising services and
// handlers without PostgreSQL or Redis.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smartnotes/smartnotes/internal/cache"
	"github.com/smartnotes/smartnotes/internal/model"
	"github.com/smartnotes/smartnotes/internal/repository"
)

// Store is an in-memory NoteStore and UserStore with cascade delete.
type Store struct {
	mu    sync.Mutex
	notes map[string]model.Note
	users map[string]model.User

	// PublicReads counts GetPublicNote calls.
	PublicReads int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		notes: make(map[string]model.Note),
		users: make(map[string]model.User),
	}
}

// CreateNote stores a copy of note.
func (s *Store) CreateNote(_ context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[note.ID] = *note
	return nil
}

// GetNoteForOwner returns the note if userID owns it.
func (s *Store) GetNoteForOwner(_ context.Context, id, userID string) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return nil, repository.ErrNoteNotFound
	}
	return &n, nil
}

// GetPublicNote returns the note if it is public.
func (s *Store) GetPublicNote(_ context.Context, id string) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PublicReads++
	n, ok := s.notes[id]
	if !ok || !n.IsPublic {
		return nil, repository.ErrNoteNotFound
	}
	return &n, nil
}

// ListNotesByOwner returns userID's notes, newest first.
func (s *Store) ListNotesByOwner(_ context.Context, userID string, limit int) ([]*model.Note, error) {
	return s.list(func(n model.Note) bool { return n.UserID == userID }, limit), nil
}

// ListAllNotes returns every note, newest first.
func (s *Store) ListAllNotes(_ context.Context, limit int) ([]*model.Note, error) {
	return s.list(func(model.Note) bool { return true }, limit), nil
}

func (s *Store) list(keep func(model.Note) bool, limit int) []*model.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Note, 0)
	for _, n := range s.notes {
		if keep(n) {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// UpdateNote rewrites title and text of an owned note.
func (s *Store) UpdateNote(_ context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[note.ID]
	if !ok || n.UserID != note.UserID {
		return repository.ErrNoteNotFound
	}
	n.Title, n.Text = note.Title, note.Text
	s.notes[note.ID] = n
	*note = n
	return nil
}

// ToggleNoteVisibility flips IsPublic of an owned note.
func (s *Store) ToggleNoteVisibility(_ context.Context, id, userID string) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return nil, repository.ErrNoteNotFound
	}
	n.IsPublic = !n.IsPublic
	s.notes[id] = n
	return &n, nil
}

// DeleteNote removes an owned note.
func (s *Store) DeleteNote(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return repository.ErrNoteNotFound
	}
	delete(s.notes, id)
	return nil
}

// DeleteNotesByIDs removes any of ids that exist.
func (s *Store) DeleteNotesByIDs(_ context.Context, ids []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.notes[id]; ok {
			delete(s.notes, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

// CreateUser stores a user, rejecting duplicate usernames.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

// GetUserByID looks a user up by ID.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

// GetUserByUsername looks a user up by username.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// ListUsers returns users ordered by username.
func (s *Store) ListUsers(_ context.Context, limit int) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteUser removes a user and their notes and returns the note IDs.
func (s *Store) DeleteUser(_ context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return nil, repository.ErrUserNotFound
	}
	delete(s.users, id)
	var removed []string
	for nid, n := range s.notes {
		if n.UserID == id {
			delete(s.notes, nid)
			removed = append(removed, nid)
		}
	}
	sort.Strings(removed)
	return removed, nil
}

// Cache is an in-memory PublicNoteCache and SessionStore.
type Cache struct {
	mu       sync.Mutex
	notes    map[string]model.Note
	negative map[string]bool
	guards   map[string]time.Time
	sessions map[string]model.Session
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{
		notes:    make(map[string]model.Note),
		negative: make(map[string]bool),
		guards:   make(map[string]time.Time),
		sessions: make(map[string]model.Session),
	}
}

// GetPublicNote returns a cached public note or cache.ErrCacheMiss.
func (c *Cache) GetPublicNote(_ context.Context, id string) (*model.Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.notes[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &n, nil
}

// SetPublicNote caches a note and clears its negative entry, unless the
// note was invalidated within cache.InvalidationGuardTTL.
func (c *Cache) SetPublicNote(_ context.Context, note *model.Note, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.guarded(note.ID) {
		return nil
	}
	c.notes[note.ID] = *note
	delete(c.negative, note.ID)
	return nil
}

// DeletePublicNote drops a note and its negative entry and starts a guard.
func (c *Cache) DeletePublicNote(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guards[id] = time.Now().Add(cache.InvalidationGuardTTL)
	delete(c.notes, id)
	delete(c.negative, id)
	return nil
}

// IsPublicNoteNegativelyCached reports a negative entry.
func (c *Cache) IsPublicNoteNegativelyCached(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.negative[id], nil
}

// SetPublicNoteNegative records a negative entry.
func (c *Cache) SetPublicNoteNegative(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.guarded(id) {
		c.negative[id] = true
	}
	return nil
}

// ExpireGuards lapses every invalidation guard, as if
// cache.InvalidationGuardTTL had passed.
func (c *Cache) ExpireGuards() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.guards)
}

func (c *Cache) guarded(id string) bool {
	until, ok := c.guards[id]
	return ok && time.Now().Before(until)
}

// HasPublicNote reports whether id is cached.
func (c *Cache) HasPublicNote(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.notes[id]
	return ok
}

// CreateSession stores a session.
func (c *Cache) CreateSession(_ context.Context, session *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.ID] = *session
	return nil
}

// GetSession returns a live session or cache.ErrSessionNotFound.
func (c *Cache) GetSession(_ context.Context, id string) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok || s.IsExpired() {
		return nil, cache.ErrSessionNotFound
	}
	return &s, nil
}

// DeleteSession removes a session.
func (c *Cache) DeleteSession(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	return nil
}

// DeleteUserSessions removes every session of userID.
func (c *Cache) DeleteUserSessions(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, s := range c.sessions {
		if s.UserID == userID {
			delete(c.sessions, id)
		}
	}
	return nil
}

// SessionCount returns the number of stored sessions.
func (c *Cache) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
