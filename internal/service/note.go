package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/smartnotes/smartnotes/internal/cache"
	"github.com/smartnotes/smartnotes/internal/form"
	"github.com/smartnotes/smartnotes/internal/metrics"
	"github.com/smartnotes/smartnotes/internal/model"
	"github.com/smartnotes/smartnotes/internal/notify"
	"github.com/smartnotes/smartnotes/internal/repository"
)

// DefaultListLimit caps list pages.
const DefaultListLimit = 500

// publicFillTimeout bounds the database read behind a public cache fill. It
// stays below cache.InvalidationGuardTTL so a fill cannot outlive the guard
// that an invalidation sets.
const publicFillTimeout = 5 * time.Second

// NoteServiceConfig tunes NoteService.
type NoteServiceConfig struct {
	PublicCacheTTL time.Duration
	ListLimit      int
}

// NoteService handles note business logic.
type NoteService struct {
	store    NoteStore
	cache    PublicNoteCache
	notifier notify.Sender
	logger   *slog.Logger
	metrics  metrics.Recorder
	cfg      NoteServiceConfig
	sf       singleflight.Group
}

// NewNoteService creates a NoteService. A nil cache disables public note caching
// and a nil notifier disables notifications.
func NewNoteService(store NoteStore, c PublicNoteCache, notifier notify.Sender, logger *slog.Logger, recorder metrics.Recorder, cfg NoteServiceConfig) *NoteService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = DefaultListLimit
	}
	if cfg.PublicCacheTTL <= 0 {
		cfg.PublicCacheTTL = cache.DefaultPublicNoteTTL
	}
	return &NoteService{
		store:    store,
		cache:    c,
		notifier: notifier,
		logger:   logger.With("component", "service.note"),
		metrics:  recorder,
		cfg:      cfg,
	}
}

// Create validates input and stores a note owned by ownerID.
func (s *NoteService) Create(ctx context.Context, ownerID string, input form.Note) (*model.Note, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	if verr := input.Clean(); verr != nil {
		return nil, verr
	}

	note := &model.Note{
		ID:        ulid.Make().String(),
		Title:     input.Title,
		Text:      input.Text,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		UserID:    ownerID,
	}

	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.metrics.IncNoteCreated()
	s.notify(ctx, fmt.Sprintf("New note created: %s", note.Title))

	return note, nil
}

// Get returns a note owned by ownerID.
func (s *NoteService) Get(ctx context.Context, ownerID, id string) (*model.Note, error) {
	note, err := s.store.GetNoteForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, mapNoteErr(err)
	}
	return note, nil
}

// List returns the notes owned by ownerID, newest first.
func (s *NoteService) List(ctx context.Context, ownerID string) ([]*model.Note, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.ListNotesByOwner(ctx, ownerID, s.cfg.ListLimit)
}

// Update rewrites title and text of a note owned by ownerID.
func (s *NoteService) Update(ctx context.Context, ownerID, id string, input form.Note) (*model.Note, error) {
	if verr := input.Clean(); verr != nil {
		return nil, verr
	}

	note := &model.Note{ID: id, UserID: ownerID, Title: input.Title, Text: input.Text}
	if err := s.store.UpdateNote(ctx, note); err != nil {
		return nil, mapNoteErr(err)
	}

	s.metrics.IncNoteUpdated()
	s.invalidate(ctx, id)

	return note, nil
}

// Delete removes a note owned by ownerID.
func (s *NoteService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteNote(ctx, id, ownerID); err != nil {
		return mapNoteErr(err)
	}

	s.metrics.IncNoteDeleted(1)
	s.invalidate(ctx, id)

	return nil
}

// ToggleVisibility flips the public flag of a note owned by ownerID.
func (s *NoteService) ToggleVisibility(ctx context.Context, ownerID, id string) (*model.Note, error) {
	note, err := s.store.ToggleNoteVisibility(ctx, id, ownerID)
	if err != nil {
		return nil, mapNoteErr(err)
	}

	s.metrics.IncNoteVisibilityToggled()
	s.invalidate(ctx, id)
	s.notify(ctx, fmt.Sprintf("Note %q is now %s", note.Title, note.Visibility()))

	return note, nil
}

// GetPublic returns a public note by ID. Cache-first, with concurrent misses
// for the same ID coalesced into one database read.
func (s *NoteService) GetPublic(ctx context.Context, id string) (*model.Note, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObservePublicNoteDuration(time.Since(start))
	}()

	if s.cache == nil {
		note, err := s.store.GetPublicNote(ctx, id)
		if err != nil {
			return nil, mapNoteErr(err)
		}
		return note, nil
	}

	note, err := s.cache.GetPublicNote(ctx, id)
	switch {
	case err == nil:
		s.metrics.IncPublicNoteCacheHit()
		return note, nil
	case errors.Is(err, cache.ErrCacheMiss):
		s.metrics.IncPublicNoteCacheMiss()
		if neg, _ := s.cache.IsPublicNoteNegativelyCached(ctx, id); neg {
			return nil, ErrNoteNotFound
		}
	default:
		s.logger.WarnContext(ctx, "public note cache read failed", "note_id", id, "error", err)
	}

	v, err, _ := s.sf.Do(id, func() (any, error) {
		// Shared by every coalesced caller, so one disconnect must not fail the rest.
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publicFillTimeout)
		defer cancel()

		note, err := s.store.GetPublicNote(fillCtx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNoteNotFound) {
				_ = s.cache.SetPublicNoteNegative(fillCtx, id)
			}
			return nil, err
		}
		if err := s.cache.SetPublicNote(fillCtx, note, s.cfg.PublicCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "public note cache fill failed", "note_id", id, "error", err)
		}
		return note, nil
	})
	if err != nil {
		return nil, mapNoteErr(err)
	}

	return v.(*model.Note), nil
}

// ListAll returns every note. Staff only.
func (s *NoteService) ListAll(ctx context.Context) ([]*model.Note, error) {
	return s.store.ListAllNotes(ctx, s.cfg.ListLimit)
}

// DeleteMany removes the given notes regardless of owner. Staff only.
func (s *NoteService) DeleteMany(ctx context.Context, ids []string) (int, error) {
	deleted, err := s.store.DeleteNotesByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	for _, id := range deleted {
		s.invalidate(ctx, id)
	}
	s.metrics.IncNoteDeleted(len(deleted))

	return len(deleted), nil
}

// EvictPublic drops cached public copies of the given notes.
func (s *NoteService) EvictPublic(ctx context.Context, ids ...string) {
	for _, id := range ids {
		s.invalidate(ctx, id)
	}
}

func (s *NoteService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePublicNote(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "public note cache invalidation failed", "note_id", id, "error", err)
	}
}

func (s *NoteService) notify(ctx context.Context, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, message); err != nil {
		s.logger.WarnContext(ctx, "notification failed", "error", err)
	}
}

func mapNoteErr(err error) error {
	if errors.Is(err, repository.ErrNoteNotFound) {
		return ErrNoteNotFound
	}
	return err
}
