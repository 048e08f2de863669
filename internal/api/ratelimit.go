// Rate limiting for the GM control plane. Action endpoints roll dice and
// write campaign state, so requests are counted per caller against a fixed
// window. The caller key is the bearer credential when one is presented,
// so the budget follows the token across machines; anonymous requests fall
// back to the client host.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter caps requests per caller over a fixed window.
type RateLimiter struct {
	mu      sync.Mutex
	callers map[string]*callerWindow
	limit   int
	window  time.Duration
	swept   time.Time
}

type callerWindow struct {
	used  int
	since time.Time
}

// NewRateLimiter allows limit requests per caller per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		callers: make(map[string]*callerWindow),
		limit:   limit,
		window:  window,
		swept:   time.Now(),
	}
}

// Allow records a request for the caller and reports whether it fits the
// current window. Expired windows restart on the next request.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	cw := rl.callers[key]
	if cw == nil || now.Sub(cw.since) >= rl.window {
		rl.callers[key] = &callerWindow{used: 1, since: now}
		return true
	}
	if cw.used < rl.limit {
		cw.used++
		return true
	}
	return false
}

// RetryAfter returns whole seconds until the caller's window resets,
// rounded up so the advertised wait is never too short.
func (rl *RateLimiter) RetryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cw := rl.callers[key]
	if cw == nil {
		return 0
	}
	remaining := rl.window - time.Since(cw.since)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// sweepLocked drops callers idle for two full windows. Runs at most once
// per window, piggybacked on Allow, so no background goroutine is needed.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.swept) < rl.window {
		return
	}
	for key, cw := range rl.callers {
		if now.Sub(cw.since) > 2*rl.window {
			delete(rl.callers, key)
		}
	}
	rl.swept = now
}

// callerKey identifies the requester. Bearer credentials take precedence
// over network position; forwarding headers are not trusted for limiting.
func callerKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return "token:" + strings.TrimPrefix(auth, "Bearer ")
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "host:" + host
}

// RateLimitMiddleware wraps a handler with per-caller rate limiting.
// Rejected requests get a 429 with a Retry-After header.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := callerKey(r)
		if !rl.Allow(key) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(key)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
