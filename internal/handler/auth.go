package handler

import (
	"net/http"

	"github.com/smartnotes/smartnotes/internal/auth"
	"github.com/smartnotes/smartnotes/internal/form"
	"github.com/smartnotes/smartnotes/internal/middleware"
	"github.com/smartnotes/smartnotes/internal/web"
)

// LoginPage handles GET /login and GET /admin/login. The form posts back to
// the path it was served from.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, "", middleware.SafeNext(r.URL.Query().Get("next")), nil)
}

// Login handles POST /login and POST /admin/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.badForm(w, r, err)
		return
	}

	input := form.Login{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	next := middleware.SafeNext(r.PostForm.Get("next"))

	user, err := h.users.Authenticate(r.Context(), input)
	if err != nil {
		if verr, ok := form.AsValidationError(err); ok {
			h.renderLogin(w, r, input.Username, next, verr.Errors)
			return
		}
		h.handleServiceError(w, r, err)
		return
	}

	// A fresh session ID on every login.
	if prev := auth.AuthFromContext(r.Context()); prev != nil {
		if err := h.users.EndSession(r.Context(), prev.SessionID); err != nil {
			h.logger.WarnContext(r.Context(), "failed to end previous session", "error", err)
		}
	}

	session, err := h.users.StartSession(r.Context(), user)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, h.cfg.SessionCookieName, session, h.cfg.SecureCookies)

	h.logger.InfoContext(r.Context(), "user_logged_in", "user_id", user.ID)

	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, username, next string, errs form.Errors) {
	h.render(w, r, http.StatusOK, web.PageLogin, "Log in", map[string]any{
		"Action":   r.URL.Path,
		"Next":     next,
		"Username": username,
	}, errs)
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if authCtx := auth.AuthFromContext(r.Context()); authCtx != nil {
		if err := h.users.EndSession(r.Context(), authCtx.SessionID); err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		h.logger.InfoContext(r.Context(), "user_logged_out", "user_id", authCtx.UserID)
	}

	middleware.ClearSessionCookie(w, h.cfg.SessionCookieName, h.cfg.SecureCookies)
	http.Redirect(w, r, h.cfg.LoginURL, http.StatusFound)
}

// SignupPage handles GET /signup.
func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageSignup, "Sign up", map[string]any{"Username": ""}, nil)
}

// Signup handles POST /signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.badForm(w, r, err)
		return
	}

	input := form.Signup{
		Username:  r.PostForm.Get("username"),
		Password1: r.PostForm.Get("password1"),
		Password2: r.PostForm.Get("password2"),
	}

	user, err := h.users.Signup(r.Context(), input)
	if err != nil {
		if verr, ok := form.AsValidationError(err); ok {
			h.render(w, r, http.StatusOK, web.PageSignup, "Sign up", map[string]any{
				"Username": input.Username,
			}, verr.Errors)
			return
		}
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user_signed_up", "user_id", user.ID)
	http.Redirect(w, r, h.cfg.LoginURL, http.StatusFound)
}
