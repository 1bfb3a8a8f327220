package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/smartnotes/smartnotes/internal/model"
)

// ErrNoteNotFound is returned when a note does not exist or is not visible to the caller.
var ErrNoteNotFound = errors.New("note not found")

const noteColumns = `id, title, text, created_at, user_id, is_public`

// CreateNote inserts a new note. CreatedAt is assigned by the caller once.
func (r *Repository) CreateNote(ctx context.Context, note *model.Note) error {
	query := `
		INSERT INTO notes (id, title, text, created_at, user_id, is_public)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		note.ID,
		note.Title,
		note.Text,
		note.CreatedAt,
		note.UserID,
		note.IsPublic,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// GetNoteForOwner retrieves a note only if it belongs to userID.
func (r *Repository) GetNoteForOwner(ctx context.Context, id, userID string) (*model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND user_id = $2`

	note, err := scanNote(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// GetPublicNote retrieves a note only if it is public.
func (r *Repository) GetPublicNote(ctx context.Context, id string) (*model.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND is_public = TRUE`

	note, err := scanNote(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get public note: %w", err)
	}

	return note, nil
}

// ListNotesByOwner returns the notes owned by userID, newest first.
func (r *Repository) ListNotesByOwner(ctx context.Context, userID string, limit int) ([]*model.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.queryNotes(ctx, query, userID, limit)
}

// ListAllNotes returns every note, newest first.
func (r *Repository) ListAllNotes(ctx context.Context, limit int) ([]*model.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	return r.queryNotes(ctx, query, limit)
}

// UpdateNote writes title and text for a note owned by userID.
// created_at and is_public are never touched.
func (r *Repository) UpdateNote(ctx context.Context, note *model.Note) error {
	query := `
		UPDATE notes
		SET title = $3, text = $4
		WHERE id = $1 AND user_id = $2
		RETURNING ` + noteColumns

	updated, err := scanNote(r.pool.QueryRow(ctx, query, note.ID, note.UserID, note.Title, note.Text))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to update note: %w", err)
	}

	*note = *updated
	return nil
}

// ToggleNoteVisibility flips is_public for a note owned by userID and returns the result.
func (r *Repository) ToggleNoteVisibility(ctx context.Context, id, userID string) (*model.Note, error) {
	query := `
		UPDATE notes
		SET is_public = NOT is_public
		WHERE id = $1 AND user_id = $2
		RETURNING ` + noteColumns

	note, err := scanNote(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to toggle note visibility: %w", err)
	}

	return note, nil
}

// DeleteNote hard-deletes a note owned by userID.
func (r *Repository) DeleteNote(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DeleteNotesByIDs removes the given notes regardless of owner and returns the deleted IDs.
func (r *Repository) DeleteNotesByIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `DELETE FROM notes WHERE id = ANY($1) RETURNING id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to delete notes: %w", err)
	}
	defer rows.Close()

	deleted := make([]string, 0, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted note id: %w", err)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deleted notes: %w", err)
	}

	return deleted, nil
}

func (r *Repository) queryNotes(ctx context.Context, query string, args ...any) ([]*model.Note, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*model.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, nil
}

func scanNote(row pgx.Row) (*model.Note, error) {
	var note model.Note
	if err := row.Scan(
		&note.ID,
		&note.Title,
		&note.Text,
		&note.CreatedAt,
		&note.UserID,
		&note.IsPublic,
	); err != nil {
		return nil, err
	}
	return &note, nil
}
