package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartnotes/smartnotes/internal/auth"
	"github.com/smartnotes/smartnotes/internal/form"
	"github.com/smartnotes/smartnotes/internal/model"
	"github.com/smartnotes/smartnotes/internal/web"
)

// ListNotes handles GET /notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, web.PageNotesList, "My notes", map[string]any{
		"Notes": notes,
	}, nil)
}

// NewNotePage handles GET /notes/new.
func (h *Handler) NewNotePage(w http.ResponseWriter, r *http.Request) {
	h.renderNoteForm(w, r, "New note", "/notes/new", form.Note{}, nil)
}

// CreateNote handles POST /notes/new. The owner is always the session user;
// any owner field in the body is ignored.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	input, ok := h.parseNoteForm(w, r)
	if !ok {
		return
	}

	note, err := h.notes.Create(r.Context(), auth.UserIDFromContext(r.Context()), input)
	if err != nil {
		if verr, ok := form.AsValidationError(err); ok {
			h.renderNoteForm(w, r, "New note", "/notes/new", input, verr.Errors)
			return
		}
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "note_created", "note_id", note.ID, "user_id", note.UserID)
	http.Redirect(w, r, "/notes", http.StatusFound)
}

// NoteDetail handles GET /notes/{id}.
func (h *Handler) NoteDetail(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownedNote(w, r)
	if !ok {
		return
	}
	h.renderNoteDetail(w, r, note, true)
}

// EditNotePage handles GET /notes/{id}/edit.
func (h *Handler) EditNotePage(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownedNote(w, r)
	if !ok {
		return
	}
	h.renderNoteForm(w, r, "Edit note", "/notes/"+note.ID+"/edit", form.Note{Title: note.Title, Text: note.Text}, nil)
}

// UpdateNote handles POST /notes/{id}/edit.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	input, ok := h.parseNoteForm(w, r)
	if !ok {
		return
	}

	note, err := h.notes.Update(r.Context(), auth.UserIDFromContext(r.Context()), id, input)
	if err != nil {
		if verr, ok := form.AsValidationError(err); ok {
			h.renderNoteForm(w, r, "Edit note", "/notes/"+id+"/edit", input, verr.Errors)
			return
		}
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "note_updated", "note_id", note.ID)
	http.Redirect(w, r, "/notes", http.StatusFound)
}

// DeleteNotePage handles GET /notes/{id}/delete.
func (h *Handler) DeleteNotePage(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownedNote(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, web.PageNotesDelete, "Delete note", map[string]any{
		"Note": note,
	}, nil)
}

// DeleteNote handles POST /notes/{id}/delete.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.notes.Delete(r.Context(), auth.UserIDFromContext(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "note_deleted", "note_id", id)
	http.Redirect(w, r, "/notes", http.StatusFound)
}

// PublicNote handles GET /notes/public/{id}. No login required.
func (h *Handler) PublicNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.renderNoteDetail(w, r, note, false)
}

// ToggleVisibility handles /notes/{id}/visibility. Only POST flips the flag;
// every other method gets the same 404 as a missing note.
func (h *Handler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.NotFound(w, r)
		return
	}

	note, err := h.notes.ToggleVisibility(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "note_visibility_changed",
		"note_id", note.ID,
		"visibility", note.Visibility(),
	)
	http.Redirect(w, r, "/notes/"+note.ID, http.StatusSeeOther)
}

func (h *Handler) ownedNote(w http.ResponseWriter, r *http.Request) (*model.Note, bool) {
	note, err := h.notes.Get(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return nil, false
	}
	return note, true
}

func (h *Handler) parseNoteForm(w http.ResponseWriter, r *http.Request) (form.Note, bool) {
	if err := r.ParseForm(); err != nil {
		h.badForm(w, r, err)
		return form.Note{}, false
	}
	return form.Note{
		Title: r.PostForm.Get("title"),
		Text:  r.PostForm.Get("text"),
	}, true
}

func (h *Handler) renderNoteForm(w http.ResponseWriter, r *http.Request, title, action string, input form.Note, errs form.Errors) {
	h.render(w, r, http.StatusOK, web.PageNotesForm, title, map[string]any{
		"Action": action,
		"Form":   input,
	}, errs)
}

func (h *Handler) renderNoteDetail(w http.ResponseWriter, r *http.Request, note *model.Note, owner bool) {
	h.render(w, r, http.StatusOK, web.PageNotesDetail, note.Title, map[string]any{
		"Note":  note,
		"Owner": owner,
	}, nil)
}
