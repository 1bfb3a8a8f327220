package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smartnotes/smartnotes/internal/metrics"
)

const (
	// DefaultQueueSize bounds pending notifications.
	DefaultQueueSize = 256
	// DefaultSendTimeout bounds a single background delivery.
	DefaultSendTimeout = 30 * time.Second
)

// ErrDispatcherClosed is returned by Send after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// ErrQueueFull is returned when a message is dropped because the queue is full.
var ErrQueueFull = errors.New("notification queue full")

// Dispatcher delivers messages through a Sender on a background worker, so
// callers on the request path never wait on slow channels.
type Dispatcher struct {
	sender      Sender
	logger      *slog.Logger
	metrics     metrics.Recorder
	sendTimeout time.Duration

	queue chan string
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts a worker delivering through sender.
func NewDispatcher(sender Sender, queueSize int, logger *slog.Logger, recorder metrics.Recorder) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	d := &Dispatcher{
		sender:      sender,
		logger:      logger.With("component", "notify.dispatcher"),
		metrics:     recorder,
		sendTimeout: DefaultSendTimeout,
		queue:       make(chan string, queueSize),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// Send enqueues message without blocking. ctx is not used for delivery.
func (d *Dispatcher) Send(_ context.Context, message string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- message:
		return nil
	default:
		d.metrics.IncNotification(metrics.StatusDropped)
		d.logger.Warn("notification dropped", "reason", "queue full")
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for message := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := d.sender.Send(ctx, message)
		cancel()

		if err != nil {
			d.metrics.IncNotification(metrics.StatusFailed)
			d.logger.Warn("notification delivery failed", "error", err)
			continue
		}
		d.metrics.IncNotification(metrics.StatusSuccess)
	}
}
