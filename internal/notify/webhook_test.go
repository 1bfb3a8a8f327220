package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWebhookSender_SignsPayload(t *testing.T) {
	t.Parallel()

	const secret = "whsec_test"
	var received Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := VerifySignatureHeader(secret, r.Header.Get(HeaderSignature), body, DefaultReplayWindow); err != nil {
			t.Errorf("signature invalid: %v", err)
		}
		if r.Header.Get(HeaderDeliveryID) == "" {
			t.Error("missing delivery id header")
		}
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, secret, WithHTTPClient(srv.Client()), WithRetryDelays(nil))
	if err := s.Send(context.Background(), "note created"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if received.Message != "note created" {
		t.Errorf("Message = %q", received.Message)
	}
	if received.ID == "" {
		t.Error("payload id should be set")
	}
}

func TestWebhookSender_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	var ids = make(chan string, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get(HeaderDeliveryID)
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "s", WithHTTPClient(srv.Client()),
		WithRetryDelays([]time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}))
	if err := s.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}

	first := <-ids
	for i := 0; i < 2; i++ {
		if id := <-ids; id != first {
			t.Errorf("delivery id changed between attempts: %q != %q", id, first)
		}
	}
}

func TestWebhookSender_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "s", WithHTTPClient(srv.Client()),
		WithRetryDelays([]time.Duration{time.Millisecond, time.Millisecond}))
	err := s.Send(context.Background(), "hi")

	var derr *DeliveryError
	if !errors.As(err, &derr) || derr.StatusCode != http.StatusBadRequest {
		t.Fatalf("Send() error = %v, want DeliveryError 400", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestWebhookSender_GivesUp(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "s", WithHTTPClient(srv.Client()),
		WithRetryDelays([]time.Duration{time.Millisecond}))
	if err := s.Send(context.Background(), "hi"); err == nil {
		t.Fatal("Send() error = nil, want failure")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestWebhookSender_ContextCanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := NewWebhookSender(srv.URL, "s", WithHTTPClient(srv.Client()),
		WithRetryDelays([]time.Duration{time.Hour}))
	err := s.Send(ctx, "hi")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send() error = %v, want deadline exceeded", err)
	}
}

func TestJitterBounds(t *testing.T) {
	t.Parallel()

	base := time.Second
	for i := 0; i < 100; i++ {
		d := jitter(base)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("jitter(%v) = %v, outside ±20%%", base, d)
		}
	}
}
