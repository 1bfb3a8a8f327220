package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	NotesCreated              uint64
	NotesUpdated              uint64
	NotesDeleted              uint64
	NoteVisibilityToggles     uint64
	PublicNoteCacheHits       uint64
	PublicNoteCacheMisses     uint64
	PublicNoteDurationCount   uint64
	PublicNoteDurationTotalNs int64
	LoginsSucceeded           uint64
	LoginsFailed              uint64
	LoginsRateLimited         uint64
	Signups                   uint64
	NotificationsSent         uint64
	NotificationsFailed       uint64
	NotificationsDropped      uint64
}

// InMemoryRecorder stores metrics in memory. Safe for concurrent use.
type InMemoryRecorder struct {
	notesCreated              uint64
	notesUpdated              uint64
	notesDeleted              uint64
	noteVisibilityToggles     uint64
	publicNoteCacheHits       uint64
	publicNoteCacheMisses     uint64
	publicNoteDurationCount   uint64
	publicNoteDurationTotalNs int64
	loginsSucceeded           uint64
	loginsFailed              uint64
	loginsRateLimited         uint64
	signups                   uint64
	notificationsSent         uint64
	notificationsFailed       uint64
	notificationsDropped      uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		NotesCreated:              atomic.LoadUint64(&m.notesCreated),
		NotesUpdated:              atomic.LoadUint64(&m.notesUpdated),
		NotesDeleted:              atomic.LoadUint64(&m.notesDeleted),
		NoteVisibilityToggles:     atomic.LoadUint64(&m.noteVisibilityToggles),
		PublicNoteCacheHits:       atomic.LoadUint64(&m.publicNoteCacheHits),
		PublicNoteCacheMisses:     atomic.LoadUint64(&m.publicNoteCacheMisses),
		PublicNoteDurationCount:   atomic.LoadUint64(&m.publicNoteDurationCount),
		PublicNoteDurationTotalNs: atomic.LoadInt64(&m.publicNoteDurationTotalNs),
		LoginsSucceeded:           atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:              atomic.LoadUint64(&m.loginsFailed),
		LoginsRateLimited:         atomic.LoadUint64(&m.loginsRateLimited),
		Signups:                   atomic.LoadUint64(&m.signups),
		NotificationsSent:         atomic.LoadUint64(&m.notificationsSent),
		NotificationsFailed:       atomic.LoadUint64(&m.notificationsFailed),
		NotificationsDropped:      atomic.LoadUint64(&m.notificationsDropped),
	}
}

// IncNoteCreated increments the note created counter.
func (m *InMemoryRecorder) IncNoteCreated() {
	atomic.AddUint64(&m.notesCreated, 1)
}

// IncNoteUpdated increments the note updated counter.
func (m *InMemoryRecorder) IncNoteUpdated() {
	atomic.AddUint64(&m.notesUpdated, 1)
}

// IncNoteDeleted adds count to the note deleted counter.
func (m *InMemoryRecorder) IncNoteDeleted(count int) {
	if count > 0 {
		atomic.AddUint64(&m.notesDeleted, uint64(count))
	}
}

// IncNoteVisibilityToggled increments the visibility toggle counter.
func (m *InMemoryRecorder) IncNoteVisibilityToggled() {
	atomic.AddUint64(&m.noteVisibilityToggles, 1)
}

// IncPublicNoteCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncPublicNoteCacheHit() {
	atomic.AddUint64(&m.publicNoteCacheHits, 1)
}

// IncPublicNoteCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncPublicNoteCacheMiss() {
	atomic.AddUint64(&m.publicNoteCacheMisses, 1)
}

// ObservePublicNoteDuration records public note lookup duration.
func (m *InMemoryRecorder) ObservePublicNoteDuration(duration time.Duration) {
	atomic.AddUint64(&m.publicNoteDurationCount, 1)
	atomic.AddInt64(&m.publicNoteDurationTotalNs, duration.Nanoseconds())
}

// IncLoginSucceeded increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSucceeded() {
	atomic.AddUint64(&m.loginsSucceeded, 1)
}

// IncLoginFailed increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailed() {
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncLoginRateLimited increments the rate limited login counter.
func (m *InMemoryRecorder) IncLoginRateLimited() {
	atomic.AddUint64(&m.loginsRateLimited, 1)
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	atomic.AddUint64(&m.signups, 1)
}

// IncNotification increments the counter for a delivery status.
// Unknown statuses are counted as failures.
func (m *InMemoryRecorder) IncNotification(status string) {
	switch status {
	case StatusSuccess:
		atomic.AddUint64(&m.notificationsSent, 1)
	case StatusDropped:
		atomic.AddUint64(&m.notificationsDropped, 1)
	default:
		atomic.AddUint64(&m.notificationsFailed, 1)
	}
}
