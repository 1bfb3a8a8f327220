package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// Webhook request headers.
const (
	HeaderSignature  = "X-Smartnotes-Signature"
	HeaderDeliveryID = "X-Smartnotes-Delivery-Id"
	userAgent        = "Smartnotes-Notify/1.0"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 10 * time.Second
	// JitterFactor is the ±fraction of jitter applied to retry delays.
	JitterFactor = 0.2
	// maxResponseBody caps how much of a response is drained.
	maxResponseBody = 4 << 10
)

// DefaultRetryDelays are the waits between delivery attempts.
var DefaultRetryDelays = []time.Duration{
	500 * time.Millisecond,
	2 * time.Second,
	5 * time.Second,
}

// Payload is the JSON body posted to the webhook target.
type Payload struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// DeliveryError describes a non-2xx webhook response.
type DeliveryError struct {
	StatusCode int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
}

// Retryable reports whether another attempt could succeed.
func (e *DeliveryError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// WebhookSender posts signed JSON notifications to a URL.
type WebhookSender struct {
	url    string
	secret string
	client *http.Client
	delays []time.Duration
	now    func() time.Time
}

// WebhookOption configures a WebhookSender.
type WebhookOption func(*WebhookSender)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(s *WebhookSender) { s.client = c }
}

// WithRetryDelays overrides the waits between attempts. An empty slice disables retries.
func WithRetryDelays(delays []time.Duration) WebhookOption {
	return func(s *WebhookSender) { s.delays = delays }
}

// NewWebhookSender returns a sender posting to url, signed with secret.
func NewWebhookSender(url, secret string, opts ...WebhookOption) *WebhookSender {
	s := &WebhookSender{
		url:    url,
		secret: secret,
		client: NewHTTPClient(),
		delays: DefaultRetryDelays,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHTTPClient creates an HTTP client for webhook delivery that never follows redirects.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Send delivers message, retrying transient failures until the delays run out
// or ctx is done.
func (s *WebhookSender) Send(ctx context.Context, message string) error {
	id := ulid.Make().String()
	body, err := json.Marshal(Payload{
		ID:      id,
		Message: message,
		SentAt:  s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = s.deliver(ctx, id, body)
		if lastErr == nil {
			return nil
		}

		var derr *DeliveryError
		if errors.As(lastErr, &derr) && !derr.Retryable() {
			return lastErr
		}
		if attempt >= len(s.delays) {
			break
		}

		timer := time.NewTimer(jitter(s.delays[attempt]))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("webhook delivery canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("webhook delivery failed after %d attempts: %w", len(s.delays)+1, lastErr)
}

func (s *WebhookSender) deliver(ctx context.Context, deliveryID string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	ts := s.now().Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderSignature, SignatureHeader(s.secret, ts, body))
	req.Header.Set(HeaderDeliveryID, deliveryID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DeliveryError{StatusCode: resp.StatusCode}
	}
	return nil
}

// jitter spreads d by ±JitterFactor.
func jitter(d time.Duration) time.Duration {
	spread := float64(d) * JitterFactor
	return time.Duration(float64(d) + (rand.Float64()*2-1)*spread)
}
