package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a fixed-window limiter kept in process memory, keyed by
// business when the request carries one and by client address otherwise.
type RateLimiter struct {
	limit     int
	window    time.Duration
	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
	now       func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, per time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if per <= 0 {
		per = time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		window:  per,
		windows: map[string]*window{},
		now:     time.Now,
	}
}

func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, retryAfter := rl.take(RateKey(r))
			if remaining < 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second)/time.Second)))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// take consumes one request. remaining is negative when the key is over its
// limit, in which case retryAfter is the time left in the window.
func (rl *RateLimiter) take(key string) (remaining int, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	win := rl.windows[key]
	if win == nil || !now.Before(win.resetAt) {
		rl.windows[key] = &window{count: 1, resetAt: now.Add(rl.window)}
		return rl.limit - 1, 0
	}
	if win.count >= rl.limit {
		return -1, win.resetAt.Sub(now)
	}
	win.count++
	return rl.limit - win.count, 0
}

// sweep drops expired windows at most once per window length.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	for key, win := range rl.windows {
		if !now.Before(win.resetAt) {
			delete(rl.windows, key)
		}
	}
	rl.lastSweep = now
}

// RateKey identifies who a request is charged to.
func RateKey(r *http.Request) string {
	if id := BusinessID(r); id != "" {
		return "biz:" + id
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		parts := strings.Split(ip, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
