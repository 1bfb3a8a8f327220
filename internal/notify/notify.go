// Package notify delivers short text notifications through pluggable senders.
//
// A Notification is built around an injected Sender, so callers never depend
// on a concrete delivery channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, message string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, message string) error

// Send calls f(ctx, message).
func (f SenderFunc) Send(ctx context.Context, message string) error {
	return f(ctx, message)
}

// Notification sends messages through whichever Sender it was built with.
type Notification struct {
	sender Sender
}

// NewNotification returns a Notification that delegates to sender.
func NewNotification(sender Sender) *Notification {
	return &Notification{sender: sender}
}

// Notify sends message through the injected sender.
func (n *Notification) Notify(ctx context.Context, message string) error {
	if n == nil || n.sender == nil {
		return nil
	}
	return n.sender.Send(ctx, message)
}

// EmailSender writes email notifications to w.
type EmailSender struct {
	w  io.Writer
	mu sync.Mutex
}

// NewEmailSender returns an EmailSender writing to w.
func NewEmailSender(w io.Writer) *EmailSender {
	return &EmailSender{w: w}
}

// Send writes "Sending email with message: <message>".
func (s *EmailSender) Send(_ context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "Sending email with message: %s\n", message)
	return err
}

// SMSSender writes SMS notifications to w.
type SMSSender struct {
	w  io.Writer
	mu sync.Mutex
}

// NewSMSSender returns an SMSSender writing to w.
func NewSMSSender(w io.Writer) *SMSSender {
	return &SMSSender{w: w}
}

// Send writes "Sending SMS with message: <message>".
func (s *SMSSender) Send(_ context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "Sending SMS with message: %s\n", message)
	return err
}

// LogSender records notifications as structured log entries.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender returns a LogSender that logs at info level.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "notify.log")}
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, message string) error {
	s.logger.InfoContext(ctx, "notification", "message", message)
	return nil
}

// MultiSender fans a message out to every sender and joins their errors.
type MultiSender []Sender

// Send delivers to all senders even if some fail.
func (m MultiSender) Send(ctx context.Context, message string) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
