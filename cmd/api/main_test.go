package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/smartnotes/smartnotes/internal/config"
	"github.com/smartnotes/smartnotes/internal/notify"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"postgres://app:s3cret@db:5432/notes", "postgres://app@db:5432/notes"},
		{"redis://:s3cret@cache:6379/0", "redis://redacted@cache:6379/0"},
		{"redis://cache:6379", "redis://cache:6379"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.raw); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://app:s3cret@db:5432/notes"
	err := errors.New("connect " + dsn + ": password=s3cret rejected")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "s3cret") {
		t.Errorf("secret leaked: %q", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("nil error should sanitize to empty string")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewNotifier(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	sender, err := newNotifier(ctx, &config.Config{AppEnv: "production"}, logger)
	if err != nil {
		t.Fatalf("newNotifier() error = %v", err)
	}
	if multi, ok := sender.(notify.MultiSender); !ok || len(multi) != 1 {
		t.Errorf("expected log-only sender, got %T", sender)
	}

	_, err = newNotifier(ctx, &config.Config{
		AppEnv:              "production",
		NotifyWebhookURL:    "http://localhost:9000/notify",
		NotifyWebhookSecret: "s3cret",
	}, logger)
	if err == nil {
		t.Error("expected plain-http localhost target to be rejected outside development")
	}

	sender, err = newNotifier(ctx, &config.Config{
		AppEnv:              "development",
		NotifyWebhookURL:    "http://localhost:9000/notify",
		NotifyWebhookSecret: "s3cret",
	}, logger)
	if err != nil {
		t.Fatalf("development webhook rejected: %v", err)
	}
	if multi := sender.(notify.MultiSender); len(multi) != 2 {
		t.Errorf("expected log and webhook senders, got %d", len(multi))
	}
}
