// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Notification delivery statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusDropped = "dropped"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Note management metrics
	IncNoteCreated()
	IncNoteUpdated()
	IncNoteDeleted(count int)
	IncNoteVisibilityToggled()

	// Public note read path
	IncPublicNoteCacheHit()
	IncPublicNoteCacheMiss()
	ObservePublicNoteDuration(duration time.Duration)

	// Account metrics
	IncLoginSucceeded()
	IncLoginFailed()
	IncLoginRateLimited()
	IncSignup()

	// Notification metrics
	IncNotification(status string) // status: "success", "failed" or "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
