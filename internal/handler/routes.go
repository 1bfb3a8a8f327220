package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/smartnotes/smartnotes/internal/metrics"
	"github.com/smartnotes/smartnotes/internal/middleware"
)

// RouterConfig wires handlers and middleware dependencies into a router.
type RouterConfig struct {
	Handler  *Handler
	Health   *HealthHandler
	Metrics  *MetricsHandler
	Sessions middleware.SessionResolver
	Limiter  middleware.IPLimiter
	Recorder metrics.Recorder
	Logger   *slog.Logger

	IsDevelopment      bool
	MaxRequestBodySize int64
	RateLimitEnabled   bool
	RateLimitPerMinute int
	RateLimitBurst     int
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := cfg.Handler
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, http.HandlerFunc(h.InternalError)))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))

	// Probes carry no session or CSRF state.
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	limit := func(scope string) func(http.Handler) http.Handler {
		return middleware.RateLimitIP(middleware.RateLimitConfig{
			Logger:    cfg.Logger,
			Limiter:   cfg.Limiter,
			Metrics:   cfg.Recorder,
			Enabled:   cfg.RateLimitEnabled && cfg.Limiter != nil,
			Scope:     scope,
			PerMinute: cfg.RateLimitPerMinute,
			Burst:     cfg.RateLimitBurst,
			Limited:   http.HandlerFunc(h.TooManyRequests),
		})
	}

	// Any method but POST on the toggle is a 404 for everyone, ahead of the
	// login and CSRF checks. chi's catch-all overwrites methods registered
	// before it, so this must precede the POST route in the group below.
	r.HandleFunc("/notes/{id}/visibility", h.NotFound)

	r.Group(func(r chi.Router) {
		maxBody := cfg.MaxRequestBodySize
		if maxBody <= 0 {
			maxBody = middleware.DefaultSecurityConfig().MaxRequestBodySize
		}
		r.Use(middleware.MaxBodySize(maxBody))
		r.Use(middleware.Session(middleware.SessionConfig{
			Logger:     cfg.Logger,
			Resolver:   cfg.Sessions,
			CookieName: h.cfg.SessionCookieName,
			Secure:     h.cfg.SecureCookies,
		}))
		r.Use(middleware.CSRF(middleware.CSRFConfig{
			Logger:  cfg.Logger,
			Secure:  h.cfg.SecureCookies,
			Failure: http.HandlerFunc(h.Forbidden),
		}))

		// Home
		r.Get("/", h.Home)
		r.With(middleware.RequireLogin(h.cfg.AdminLoginURL)).Get("/authorized", h.Authorized)

		// Accounts
		r.Get("/login", h.LoginPage)
		r.With(limit("login")).Post("/login", h.Login)
		r.Get("/admin/login", h.LoginPage)
		r.With(limit("login")).Post("/admin/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/signup", h.SignupPage)
		r.With(limit("signup")).Post("/signup", h.Signup)

		// Notes
		r.Get("/notes/public/{id}", h.PublicNote)
		r.With(middleware.RequireLogin(h.cfg.AdminLoginURL)).Get("/notes", h.ListNotes)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin(h.cfg.LoginURL))
			r.Get("/notes/new", h.NewNotePage)
			r.Post("/notes/new", h.CreateNote)
			r.Get("/notes/{id}", h.NoteDetail)
			r.Get("/notes/{id}/edit", h.EditNotePage)
			r.Post("/notes/{id}/edit", h.UpdateNote)
			r.Get("/notes/{id}/delete", h.DeleteNotePage)
			r.Post("/notes/{id}/delete", h.DeleteNote)
			r.Post("/notes/{id}/visibility", h.ToggleVisibility)
		})

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff(h.cfg.AdminLoginURL, http.HandlerFunc(h.Forbidden)))
			r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/admin/notes", http.StatusFound)
			})
			r.Get("/admin/notes", h.AdminNotes)
			r.Post("/admin/notes/delete", h.AdminDeleteNotes)
			r.Get("/admin/users", h.AdminUsers)
			r.Post("/admin/users/{id}/delete", h.AdminDeleteUser)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
