package handler

import (
	"errors"
	"net/http"

	"github.com/smartnotes/smartnotes/internal/middleware"
	"github.com/smartnotes/smartnotes/internal/service"
)

// handleServiceError maps service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNoteNotFound), errors.Is(err, service.ErrUserNotFound):
		h.NotFound(w, r)
	case errors.Is(err, service.ErrUnauthenticated):
		middleware.RedirectToLogin(w, r, h.cfg.LoginURL)
	default:
		h.logger.ErrorContext(r.Context(), "internal_error",
			"error", err,
			"endpoint", r.Method+" "+r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		h.InternalError(w, r)
	}
}

// badForm is served when a form body cannot be parsed at all.
func (h *Handler) badForm(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.renderError(w, r, http.StatusRequestEntityTooLarge, "The submitted form is too large.")
		return
	}
	h.renderError(w, r, http.StatusBadRequest, "The submitted form could not be read.")
}
