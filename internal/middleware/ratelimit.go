package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/smartnotes/smartnotes/internal/cache"
	"github.com/smartnotes/smartnotes/internal/metrics"
)

// IPLimiter checks a per-IP token bucket.
type IPLimiter interface {
	CheckIPRateLimit(ctx context.Context, scope, ip string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger    *slog.Logger
	Limiter   IPLimiter
	Metrics   metrics.Recorder
	Enabled   bool
	Scope     string
	PerMinute int
	Burst     int
	// Limited renders the rejection; plain text if nil.
	Limited http.Handler
}

// RateLimitIP returns middleware that rate limits unsafe requests per client
// IP. Used on the credential endpoints.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)

			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), cfg.Scope, ip, cfg.PerMinute, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("IP rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("scope", cfg.Scope),
				)
				// Fail open
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, cfg.Burst, result.Remaining, result.ResetAt)

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("scope", cfg.Scope),
					slog.String("ip", ip),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", retryAfterSeconds(result.RetryAfter)),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				if cfg.Metrics != nil {
					cfg.Metrics.IncLoginRateLimited()
				}

				w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds(result.RetryAfter), 10))
				if cfg.Limited != nil {
					cfg.Limited.ServeHTTP(w, r)
					return
				}
				http.Error(w, "Too many attempts. Try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) int64 {
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

// clientIP returns the host part of RemoteAddr. chi's RealIP runs earlier
// in the chain and has already applied proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
