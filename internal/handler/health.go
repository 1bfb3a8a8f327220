package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultReadinessTimeout bounds a full readiness check.
const DefaultReadinessTimeout = 3 * time.Second

// HealthChecker is a dependency that can be pinged.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Check names a dependency checked by /readyz.
type Check struct {
	Name    string
	Checker HealthChecker
}

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	checks  []Check
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler. Checks with a nil Checker are
// reported as not configured and never fail readiness.
func NewHealthHandler(logger *slog.Logger, checks ...Check) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		checks:  checks,
		timeout: DefaultReadinessTimeout,
		logger:  logger,
	}
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
}

// HealthResponse is the body of both endpoints.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// Healthz reports that the process is serving. It never touches dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every dependency concurrently and returns 503 if any fails.
// Error detail goes to the log only.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results := make([]CheckResult, len(h.checks))
	var g errgroup.Group
	for i, c := range h.checks {
		if c.Checker == nil {
			results[i] = CheckResult{Status: "not configured"}
			continue
		}
		g.Go(func() error {
			start := time.Now()
			err := c.Checker.Ping(ctx)
			results[i] = CheckResult{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				results[i].Status = "unavailable"
				h.logger.WarnContext(ctx, "readiness check failed", "check", c.Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]CheckResult, len(results))}
	code := http.StatusOK
	for i, c := range h.checks {
		resp.Checks[c.Name] = results[i]
		if results[i].Status == "unavailable" {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, resp)
}
