package middleware

import (
	"context"
	"io"
	"log/slog"

	"github.com/smartnotes/smartnotes/internal/model"
	"github.com/smartnotes/smartnotes/internal/service"
)

const testSessionID = "0123456789abcdef0123456789abcdef01234567"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubResolver struct {
	auth *model.AuthContext
	err  error
}

func (s stubResolver) ResolveSession(_ context.Context, sessionID string) (*model.AuthContext, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.auth == nil {
		return nil, service.ErrSessionNotFound
	}
	ac := *s.auth
	ac.SessionID = sessionID
	return &ac, nil
}
