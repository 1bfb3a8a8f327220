package cache

import (
	"strings"
	"testing"
	"time"
)

func TestBucketKey(t *testing.T) {
	t.Parallel()

	key := bucketKey("login", "192.168.1.100")
	if !strings.HasPrefix(key, "ratelimit:ip:login:") {
		t.Fatalf("bucketKey() = %q, want ratelimit:ip:login: prefix", key)
	}
	if strings.Contains(key, "192.168") {
		t.Errorf("bucketKey() = %q leaks the raw IP", key)
	}
	if hash := strings.TrimPrefix(key, "ratelimit:ip:login:"); len(hash) != 16 {
		t.Errorf("hash length = %d, want 16", len(hash))
	}
	if key != bucketKey("login", "192.168.1.100") {
		t.Error("bucketKey() must be deterministic")
	}

	distinct := []struct{ scope, ip string }{
		{"login", "192.168.1.101"},
		{"signup", "192.168.1.100"},
		{"login", "::1"},
	}
	for _, d := range distinct {
		if bucketKey(d.scope, d.ip) == key {
			t.Errorf("bucketKey(%q, %q) collides with login/192.168.1.100", d.scope, d.ip)
		}
	}
}

func TestBucketTTL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		ratePerMinute int
		burst         int
		want          time.Duration
	}{
		{"fast refill floors at minimum", 600, 5, minBucketTTL},
		{"ten per minute burst five", 10, 5, 30 * time.Second},
		{"one per minute burst three", 1, 3, 3 * time.Minute},
		{"uneven division", 7, 2, 2 * time.Minute / 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := bucketTTL(tt.ratePerMinute, tt.burst); got != tt.want {
				t.Errorf("bucketTTL(%d, %d) = %v, want %v", tt.ratePerMinute, tt.burst, got, tt.want)
			}
		})
	}
}

func TestParseUnixNano(t *testing.T) {
	t.Parallel()

	if got := parseUnixNano(""); !got.IsZero() {
		t.Errorf("parseUnixNano(\"\") = %v, want zero", got)
	}
	if got := parseUnixNano("not-a-number"); !got.IsZero() {
		t.Errorf("parseUnixNano(garbage) = %v, want zero", got)
	}
	if got := parseUnixNano("1700000000000000000"); got.Unix() != 1700000000 {
		t.Errorf("parseUnixNano() = %v, want unix 1700000000", got)
	}
}
