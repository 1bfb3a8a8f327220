// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// MaxTitleLength bounds the notes.title column.
const MaxTitleLength = 100

// Note is a titled piece of text owned by exactly one user.
// CreatedAt is set on insert and never updated.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
	IsPublic  bool      `json:"is_public"`
}

// Visibility returns a human-readable label for the public flag.
func (n *Note) Visibility() string {
	if n.IsPublic {
		return "public"
	}
	return "private"
}

// CachedNote represents public note data stored in Redis.
// Uses string types for Redis hash compatibility.
type CachedNote struct {
	Title     string `redis:"title"`
	Text      string `redis:"text"`
	UserID    string `redis:"user_id"`
	IsPublic  string `redis:"is_public"`  // "1" or "0"
	CreatedAt string `redis:"created_at"` // Unix nanoseconds
}

// ToNote converts CachedNote to the Note domain model.
func (c *CachedNote) ToNote(id string) *Note {
	note := &Note{
		ID:       id,
		Title:    c.Title,
		Text:     c.Text,
		UserID:   c.UserID,
		IsPublic: c.IsPublic == "1",
	}

	if c.CreatedAt != "" {
		if ts, err := strconv.ParseInt(c.CreatedAt, 10, 64); err == nil {
			note.CreatedAt = time.Unix(0, ts).UTC()
		}
	}

	return note
}

// ToCachedNote converts a Note to its cached representation.
func (n *Note) ToCachedNote() *CachedNote {
	return &CachedNote{
		Title:     n.Title,
		Text:      n.Text,
		UserID:    n.UserID,
		IsPublic:  boolToString(n.IsPublic),
		CreatedAt: strconv.FormatInt(n.CreatedAt.UnixNano(), 10),
	}
}

// boolToString converts boolean to "1" or "0".
func boolToString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
