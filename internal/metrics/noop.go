package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncNoteCreated()                         {}
func (n *NoopRecorder) IncNoteUpdated()                         {}
func (n *NoopRecorder) IncNoteDeleted(int)                      {}
func (n *NoopRecorder) IncNoteVisibilityToggled()               {}
func (n *NoopRecorder) IncPublicNoteCacheHit()                  {}
func (n *NoopRecorder) IncPublicNoteCacheMiss()                 {}
func (n *NoopRecorder) ObservePublicNoteDuration(time.Duration) {}
func (n *NoopRecorder) IncLoginSucceeded()                      {}
func (n *NoopRecorder) IncLoginFailed()                         {}
func (n *NoopRecorder) IncLoginRateLimited()                    {}
func (n *NoopRecorder) IncSignup()                              {}
func (n *NoopRecorder) IncNotification(string)                  {}
