package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/smartnotes/smartnotes/internal/model"
)

// TestLogging_CredentialsNotLogged ensures cookies, form bodies and query
// strings never reach the log line.
func TestLogging_CredentialsNotLogged(t *testing.T) {
	t.Parallel()

	sensitive := []string{
		"0123456789abcdef0123456789abcdef01234567",
		"hunter2-password",
		"csrf-token-value",
		"secret-query",
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.WriteHeader(http.StatusSeeOther)
	}))

	body := url.Values{
		"username":            {"alice"},
		"password":            {"hunter2-password"},
		"csrfmiddlewaretoken": {"csrf-token-value"},
	}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/login?next=/secret-query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: DefaultSessionCookieName, Value: "0123456789abcdef0123456789abcdef01234567"})
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "csrf-token-value"})

	handler.ServeHTTP(httptest.NewRecorder(), req)

	logOutput := buf.String()
	for _, pattern := range sensitive {
		if strings.Contains(logOutput, pattern) {
			t.Errorf("log output contains sensitive value %q: %s", pattern, logOutput)
		}
	}
	if !strings.Contains(logOutput, `"path":"/login"`) {
		t.Errorf("expected path without query, got %s", logOutput)
	}
}

// TestLogging_UserIDFromSession verifies the session identity reaches the
// request log line written by the outer middleware.
func TestLogging_UserIDFromSession(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	resolver := stubResolver{auth: &model.AuthContext{UserID: "01HXUSER", Username: "alice"}}
	chain := Logger(logger)(Session(SessionConfig{Logger: logger, Resolver: resolver})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("hello"))
		}),
	))

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.AddCookie(&http.Cookie{Name: DefaultSessionCookieName, Value: testSessionID})
	chain.ServeHTTP(httptest.NewRecorder(), req)

	logOutput := buf.String()
	if !strings.Contains(logOutput, `"user_id":"01HXUSER"`) {
		t.Errorf("expected user_id in log output, got %s", logOutput)
	}
	if !strings.Contains(logOutput, `"bytes":5`) {
		t.Errorf("expected bytes=5 in log output, got %s", logOutput)
	}
}

// TestLogging_BasicFields verifies that expected non-sensitive fields are logged.
func TestLogging_BasicFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	loggingMiddleware := Logger(logger)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	wrapped := loggingMiddleware(handler)

	req := httptest.NewRequest("POST", "/notes/new", nil)
	req.Header.Set("User-Agent", "TestBrowser/2.0")

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	logOutput := buf.String()

	// These fields should be logged
	expectedFields := []string{
		`"method":"POST"`,
		`"path":"/notes/new"`,
		`"status_code":201`,
		`"user_agent":"TestBrowser/2.0"`,
	}

	for _, field := range expectedFields {
		if !strings.Contains(logOutput, field) {
			t.Errorf("Expected log field %s not found in output", field)
		}
	}
}

// TestLogging_ErrorStatusLevel verifies error statuses are logged at error level.
func TestLogging_ErrorStatusLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		wantLevel  string
	}{
		{"success", http.StatusOK, "INFO"},
		{"created", http.StatusCreated, "INFO"},
		{"bad request", http.StatusBadRequest, "WARN"},
		{"unauthorized", http.StatusUnauthorized, "WARN"},
		{"not found", http.StatusNotFound, "WARN"},
		{"internal error", http.StatusInternalServerError, "ERROR"},
		{"bad gateway", http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			loggingMiddleware := Logger(logger)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			wrapped := loggingMiddleware(handler)

			req := httptest.NewRequest("GET", "/test", nil)
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)

			logOutput := buf.String()

			// Check log level
			if !strings.Contains(logOutput, `"level":"`+tt.wantLevel+`"`) {
				t.Errorf("Expected log level %s for status %d, got output: %s", tt.wantLevel, tt.statusCode, logOutput)
			}
		})
	}
}

// TestResponseWriter_CapturesStatus verifies the response writer correctly captures status codes.
func TestResponseWriter_CapturesStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"ok", http.StatusOK},
		{"created", http.StatusCreated},
		{"no content", http.StatusNoContent},
		{"bad request", http.StatusBadRequest},
		{"internal error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			wrapped := wrapResponseWriter(rec)

			wrapped.WriteHeader(tt.statusCode)

			if wrapped.status != tt.statusCode {
				t.Errorf("status = %d, want %d", wrapped.status, tt.statusCode)
			}
		})
	}
}

// TestResponseWriter_DefaultStatus verifies default status is 200 OK.
func TestResponseWriter_DefaultStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	wrapped := wrapResponseWriter(rec)

	// Write without explicit WriteHeader
	wrapped.Write([]byte("hello"))

	if wrapped.status != http.StatusOK {
		t.Errorf("default status = %d, want %d", wrapped.status, http.StatusOK)
	}
}

// TestResponseWriter_DoubleWriteHeader ensures only first WriteHeader takes effect.
func TestResponseWriter_DoubleWriteHeader(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	wrapped := wrapResponseWriter(rec)

	wrapped.WriteHeader(http.StatusCreated)
	wrapped.WriteHeader(http.StatusInternalServerError) // Should be ignored

	if wrapped.status != http.StatusCreated {
		t.Errorf("status after double write = %d, want %d", wrapped.status, http.StatusCreated)
	}
}
