package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/smartnotes/smartnotes/internal/auth"
	"github.com/smartnotes/smartnotes/internal/cache"
	"github.com/smartnotes/smartnotes/internal/form"
	"github.com/smartnotes/smartnotes/internal/metrics"
	"github.com/smartnotes/smartnotes/internal/model"
	"github.com/smartnotes/smartnotes/internal/repository"
)

// ErrDuplicateUsername is shown on the username field when it is taken.
const ErrDuplicateUsername = "A user with that username already exists."

// UserServiceConfig tunes UserService.
type UserServiceConfig struct {
	SessionTTL time.Duration
	HashParams auth.Params
	ListLimit  int
}

// UserService handles accounts and login sessions.
type UserService struct {
	users    UserStore
	sessions SessionStore
	logger   *slog.Logger
	metrics  metrics.Recorder
	cfg      UserServiceConfig
}

// NewUserService creates a UserService. Zero config fields take defaults.
func NewUserService(users UserStore, sessions SessionStore, logger *slog.Logger, recorder metrics.Recorder, cfg UserServiceConfig) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = cache.DefaultSessionTTL
	}
	if cfg.HashParams == (auth.Params{}) {
		cfg.HashParams = auth.DefaultParams
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = DefaultListLimit
	}
	return &UserService{
		users:    users,
		sessions: sessions,
		logger:   logger.With("component", "service.user"),
		metrics:  recorder,
		cfg:      cfg,
	}
}

// Signup validates the form and creates a regular user.
func (s *UserService) Signup(ctx context.Context, input form.Signup) (*model.User, error) {
	user, err := s.createUser(ctx, input, false)
	if err != nil {
		return nil, err
	}
	s.metrics.IncSignup()
	return user, nil
}

// CreateStaffUser creates a user with access to the admin pages.
func (s *UserService) CreateStaffUser(ctx context.Context, username, password string) (*model.User, error) {
	return s.createUser(ctx, form.Signup{Username: username, Password1: password, Password2: password}, true)
}

func (s *UserService) createUser(ctx context.Context, input form.Signup, staff bool) (*model.User, error) {
	if verr := input.Clean(); verr != nil {
		return nil, verr
	}

	hash, err := auth.HashPasswordWithParams(input.Password1, s.cfg.HashParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     input.Username,
		PasswordHash: hash,
		IsStaff:      staff,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			errs := form.Errors{}
			errs.Add("username", ErrDuplicateUsername)
			return nil, &form.ValidationError{Errors: errs}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "staff", staff)
	return user, nil
}

// Authenticate checks credentials. Failures are reported as a form error
// that does not reveal whether the username exists.
func (s *UserService) Authenticate(ctx context.Context, input form.Login) (*model.User, error) {
	if verr := input.Clean(); verr != nil {
		return nil, verr
	}

	user, err := s.users.GetUserByUsername(ctx, input.Username)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		auth.RejectPassword(input.Password)
		return nil, s.invalidLogin()
	}

	ok, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		s.logger.WarnContext(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
	}
	if !ok {
		return nil, s.invalidLogin()
	}

	s.metrics.IncLoginSucceeded()
	return user, nil
}

func (s *UserService) invalidLogin() error {
	s.metrics.IncLoginFailed()
	errs := form.Errors{}
	errs.Add(form.NonFieldErrors, form.ErrInvalidLogin)
	return fmt.Errorf("%w: %w", ErrInvalidCredentials, &form.ValidationError{Errors: errs})
}

// StartSession opens a new login session for user.
func (s *UserService) StartSession(ctx context.Context, user *model.User) (*model.Session, error) {
	id, err := auth.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now().UTC()
	session := &model.Session{
		ID:        id,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// EndSession deletes a login session. Unknown IDs are not an error.
func (s *UserService) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// ResolveSession returns the identity behind a session ID.
func (s *UserService) ResolveSession(ctx context.Context, sessionID string) (*model.AuthContext, error) {
	if !auth.ValidSessionID(sessionID) {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.sessions.DeleteSession(ctx, sessionID)
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	return &model.AuthContext{
		SessionID: session.ID,
		UserID:    user.ID,
		Username:  user.Username,
		IsStaff:   user.IsStaff,
	}, nil
}

// ListUsers returns all users. Staff only.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.users.ListUsers(ctx, s.cfg.ListLimit)
}

// DeleteUser removes a user, their sessions and their notes. It returns the
// IDs of the removed notes so callers can evict cached copies.
func (s *UserService) DeleteUser(ctx context.Context, id string) ([]string, error) {
	noteIDs, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.sessions.DeleteUserSessions(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to purge sessions of deleted user", "user_id", id, "error", err)
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id, "notes_removed", len(noteIDs))
	return noteIDs, nil
}
