package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func TestHealthz_IgnoresDependencies(t *testing.T) {
	h := NewHealthHandler(discardLogger(), Check{Name: "postgres", Checker: &stubPinger{err: errors.New("down")}})

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || len(resp.Checks) != 0 {
		t.Errorf("response = %+v", resp)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		db         HealthChecker
		cache      HealthChecker
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			db:         &stubPinger{},
			cache:      &stubPinger{},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name:       "database down",
			db:         &stubPinger{err: errors.New("connection refused")},
			cache:      &stubPinger{},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"postgres": "unavailable", "redis": "ok"},
		},
		{
			name:       "redis down",
			db:         &stubPinger{},
			cache:      &stubPinger{err: errors.New("i/o timeout")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"postgres": "ok", "redis": "unavailable"},
		},
		{
			name:       "nothing configured",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"postgres": "not configured", "redis": "not configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHealthHandler(discardLogger(),
				Check{Name: "postgres", Checker: tt.db},
				Check{Name: "redis", Checker: tt.cache},
			)

			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if strings.Contains(rec.Body.String(), "refused") || strings.Contains(rec.Body.String(), "timeout") {
				t.Errorf("error detail leaked: %s", rec.Body.String())
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantStatus)
			}
			for name, want := range tt.wantChecks {
				if got := resp.Checks[name].Status; got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}
