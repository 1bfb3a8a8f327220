// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/smartnotes/smartnotes/internal/auth"
	"github.com/smartnotes/smartnotes/internal/form"
	"github.com/smartnotes/smartnotes/internal/middleware"
	"github.com/smartnotes/smartnotes/internal/service"
	"github.com/smartnotes/smartnotes/internal/web"
)

// Config holds the URLs and cookie settings the handlers need.
type Config struct {
	LoginURL          string
	AdminLoginURL     string
	SessionCookieName string
	SecureCookies     bool
}

// Handler serves the HTML pages.
type Handler struct {
	renderer *web.Renderer
	notes    *service.NoteService
	users    *service.UserService
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

// New creates a new Handler instance.
func New(renderer *web.Renderer, notes *service.NoteService, users *service.UserService, logger *slog.Logger, cfg Config) *Handler {
	if cfg.LoginURL == "" {
		cfg.LoginURL = "/login"
	}
	if cfg.AdminLoginURL == "" {
		cfg.AdminLoginURL = "/admin/login"
	}
	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = middleware.DefaultSessionCookieName
	}
	return &Handler{
		renderer: renderer,
		notes:    notes,
		users:    users,
		logger:   logger.With("component", "handler"),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageWelcome, "Welcome", map[string]any{
		"Today": h.now(),
	}, nil)
}

// Authorized handles GET /authorized. Login required.
func (h *Handler) Authorized(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageAuthorized, "Authorized", nil, nil)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "The requested page could not be found.")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusMethodNotAllowed, "This page does not accept that method.")
}

// Forbidden handles CSRF failures and non-staff access to admin pages.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusForbidden, "You do not have permission to perform this action.")
}

// TooManyRequests is served when the login rate limit is exceeded.
func (h *Handler) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusTooManyRequests, "Too many attempts. Please wait a moment and try again.")
}

// InternalError is served after a recovered panic.
func (h *Handler) InternalError(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again later.")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any, errs form.Errors) {
	pd := web.PageData{
		Title:     title,
		User:      auth.AuthFromContext(r.Context()),
		CSRFToken: auth.CSRFTokenFromContext(r.Context()),
		Errors:    errs,
		Data:      data,
	}
	if err := h.renderer.Render(w, status, page, pd); err != nil {
		h.logger.ErrorContext(r.Context(), "render failed",
			"page", page,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, web.PageError, http.StatusText(status), map[string]any{
		"Status":  status,
		"Message": message,
	}, nil)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
