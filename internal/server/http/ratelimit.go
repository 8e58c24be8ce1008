package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/LoganNickels654/research-assistant-service/internal/observability"
)

// RateLimitConfig bounds request admission per client IP.
type RateLimitConfig struct {
	// MaxRequests allowed per client IP within Window. Zero disables limiting.
	MaxRequests int
	// Window is the sliding window the limit applies over.
	Window time.Duration
}

// rateLimiter enforces a per-IP sliding window over request timestamps.
type rateLimiter struct {
	mu          sync.Mutex
	requests    map[string][]time.Time
	maxRequests int
	window      time.Duration
	nowFunc     func() time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{
		requests:    make(map[string][]time.Time),
		maxRequests: cfg.MaxRequests,
		window:      window,
		nowFunc:     time.Now,
	}
}

// allow reports whether a request from the given client should be admitted,
// recording it if so.
func (rl *rateLimiter) allow(clientIP string) bool {
	if rl.maxRequests <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFunc()
	cutoff := now.Add(-rl.window)

	recent := rl.requests[clientIP][:0]
	for _, t := range rl.requests[clientIP] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.maxRequests {
		rl.requests[clientIP] = recent
		return false
	}

	rl.requests[clientIP] = append(recent, now)
	return true
}

// rateLimitMiddleware rejects clients that exceed the per-IP request budget.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientAddr(r)
		if !s.rateLimiter.allow(clientIP) {
			if s.metrics != nil {
				s.metrics.RecordRateLimited()
			}
			s.logger.Warn().Str("client_ip", clientIP).Msg("request rate limited")
			writeError(w, http.StatusTooManyRequests, "too many requests, slow down")
			return
		}
		ctx := observability.WithClientIP(r.Context(), clientIP)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientAddr extracts the client IP; middleware.RealIP has already resolved
// forwarded headers into RemoteAddr.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
