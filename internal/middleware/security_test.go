package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurity(t *testing.T) {
	tests := []struct {
		name        string
		isDev       bool
		checkHeader string
		wantPresent bool
		wantValue   string
	}{
		{
			name:        "X-Content-Type-Options is set",
			checkHeader: "X-Content-Type-Options",
			wantPresent: true,
			wantValue:   "nosniff",
		},
		{
			name:        "X-Frame-Options is set",
			checkHeader: "X-Frame-Options",
			wantPresent: true,
			wantValue:   "DENY",
		},
		{
			name:        "Referrer-Policy is set",
			checkHeader: "Referrer-Policy",
			wantPresent: true,
			wantValue:   "same-origin",
		},
		{
			name:        "CSP restricts form targets",
			checkHeader: "Content-Security-Policy",
			wantPresent: true,
			wantValue:   ContentSecurityPolicy,
		},
		{
			name:        "HSTS is set in production",
			checkHeader: "Strict-Transport-Security",
			wantPresent: true,
			wantValue:   "max-age=31536000; includeSubDomains",
		},
		{
			name:        "HSTS is NOT set in development",
			isDev:       true,
			checkHeader: "Strict-Transport-Security",
			wantPresent: false,
		},
		{
			name:        "Cross-Origin-Opener-Policy is set",
			checkHeader: "Cross-Origin-Opener-Policy",
			wantPresent: true,
			wantValue:   "same-origin",
		},
		{
			name:        "Cross-Origin-Resource-Policy is set",
			checkHeader: "Cross-Origin-Resource-Policy",
			wantPresent: true,
			wantValue:   "same-origin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := SecurityConfig{IsDevelopment: tt.isDev}

			handler := Security(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(tt.checkHeader)
			if tt.wantPresent {
				if got != tt.wantValue {
					t.Errorf("header %s = %q, want %q", tt.checkHeader, got, tt.wantValue)
				}
			} else if got != "" {
				t.Errorf("header %s = %q, want empty", tt.checkHeader, got)
			}
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	tests := []struct {
		name          string
		maxBytes      int64
		contentLength int64
		body          string
		wantStatus    int
	}{
		{
			name:          "small body allowed",
			maxBytes:      1024,
			contentLength: 10,
			body:          "small body",
			wantStatus:    http.StatusOK,
		},
		{
			name:          "content-length exceeds limit",
			maxBytes:      10,
			contentLength: 100,
			body:          "this is a much longer body that exceeds the limit",
			wantStatus:    http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := MaxBodySize(tt.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSafeNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		next string
		want string
	}{
		{"", ""},
		{"/notes", "/notes"},
		{"/notes/01HX?tab=1", "/notes/01HX?tab=1"},
		{"//evil.example", ""},
		{"/\\evil.example", ""},
		{"https://evil.example/", ""},
		{"javascript:alert(1)", ""},
		{"notes", ""},
		{"/notes\r\nSet-Cookie: x=1", ""},
	}

	for _, tt := range tests {
		if got := SafeNext(tt.next); got != tt.want {
			t.Errorf("SafeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestRecoverer(t *testing.T) {
	t.Parallel()

	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("custom error page"))
	})
	handler := Recoverer(discardLogger(), fallback)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if rec.Body.String() != "custom error page" {
		t.Errorf("body = %q, want fallback body", rec.Body.String())
	}
}

func TestRecoverer_RepanicsAbortHandler(t *testing.T) {
	t.Parallel()

	handler := Recoverer(discardLogger(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rvr := recover(); rvr != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rvr)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
