package handler

import (
	"fmt"
	"net/http"

	"github.com/smartnotes/smartnotes/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "smartnotes_notes_created_total %d\n", snap.NotesCreated)
	writeMetric(w, "smartnotes_notes_updated_total %d\n", snap.NotesUpdated)
	writeMetric(w, "smartnotes_notes_deleted_total %d\n", snap.NotesDeleted)
	writeMetric(w, "smartnotes_note_visibility_toggles_total %d\n", snap.NoteVisibilityToggles)

	writeMetric(w, "smartnotes_public_note_cache_hits_total %d\n", snap.PublicNoteCacheHits)
	writeMetric(w, "smartnotes_public_note_cache_misses_total %d\n", snap.PublicNoteCacheMisses)
	writeMetric(w, "smartnotes_public_note_duration_seconds_count %d\n", snap.PublicNoteDurationCount)
	writeMetric(w, "smartnotes_public_note_duration_seconds_sum %.6f\n", float64(snap.PublicNoteDurationTotalNs)/1e9)

	writeMetric(w, "smartnotes_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "smartnotes_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "smartnotes_logins_total{status=\"rate_limited\"} %d\n", snap.LoginsRateLimited)
	writeMetric(w, "smartnotes_signups_total %d\n", snap.Signups)

	writeMetric(w, "smartnotes_notifications_total{status=\"success\"} %d\n", snap.NotificationsSent)
	writeMetric(w, "smartnotes_notifications_total{status=\"failed\"} %d\n", snap.NotificationsFailed)
	writeMetric(w, "smartnotes_notifications_total{status=\"dropped\"} %d\n", snap.NotificationsDropped)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
