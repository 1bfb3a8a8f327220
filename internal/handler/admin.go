package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smartnotes/smartnotes/internal/auth"
	"github.com/smartnotes/smartnotes/internal/web"
)

const noSelectionMessage = "Items must be selected in order to perform actions on them. No items have been changed."

// AdminNotes handles GET /admin/notes. Staff only.
func (h *Handler) AdminNotes(w http.ResponseWriter, r *http.Request) {
	message := ""
	if n, err := strconv.Atoi(r.URL.Query().Get("deleted")); err == nil {
		message = deletedMessage(n)
	}
	h.renderAdminNotes(w, r, message)
}

// AdminDeleteNotes handles POST /admin/notes/delete, the bulk "delete
// selected" action over the ids form field.
func (h *Handler) AdminDeleteNotes(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.badForm(w, r, err)
		return
	}

	ids := r.PostForm["ids"]
	if len(ids) == 0 {
		h.renderAdminNotes(w, r, noSelectionMessage)
		return
	}

	deleted, err := h.notes.DeleteMany(r.Context(), ids)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "admin_notes_deleted",
		"count", deleted,
		"staff_user_id", auth.UserIDFromContext(r.Context()),
	)

	target := "/admin/notes?" + url.Values{"deleted": {strconv.Itoa(deleted)}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) renderAdminNotes(w http.ResponseWriter, r *http.Request, message string) {
	notes, err := h.notes.ListAll(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, web.PageAdminNotes, "Notes administration", map[string]any{
		"Notes":   notes,
		"Message": message,
	}, nil)
}

// AdminUsers handles GET /admin/users. Staff only.
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, web.PageAdminUsers, "Users administration", map[string]any{
		"Users": users,
	}, nil)
}

// AdminDeleteUser handles POST /admin/users/{id}/delete. The user's notes go
// with them, so their public copies are evicted too.
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	noteIDs, err := h.users.DeleteUser(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.notes.EvictPublic(r.Context(), noteIDs...)

	h.logger.InfoContext(r.Context(), "admin_user_deleted",
		"user_id", id,
		"notes_removed", len(noteIDs),
		"staff_user_id", auth.UserIDFromContext(r.Context()),
	)
	http.Redirect(w, r, "/admin/users", http.StatusFound)
}

func deletedMessage(n int) string {
	if n == 1 {
		return "Successfully deleted 1 note."
	}
	return fmt.Sprintf("Successfully deleted %d notes.", n)
}
