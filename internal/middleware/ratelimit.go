package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/diewo77/go-lawfirm/httpx"
	"golang.org/x/time/rate"
)

// RateLimiter throttles requests per client IP with a token bucket.
type RateLimiter struct {
	mu      sync.Mutex
	perMin  int
	entries map[string]*limiterEntry
	now     func() time.Time
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter allows perMinute requests per IP with a burst of the same size.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{perMin: perMinute, entries: make(map[string]*limiterEntry), now: time.Now}
}

// Allow consumes one token for ip.
func (l *RateLimiter) Allow(ip string) bool {
	if l.perMin <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.entries[ip] = e
	}
	e.seen = now
	if len(l.entries) > 10000 {
		l.sweep(now)
	}
	return e.lim.AllowN(now, 1)
}

// sweep drops buckets idle for more than ten minutes.
func (l *RateLimiter) sweep(now time.Time) {
	for ip, e := range l.entries {
		if now.Sub(e.seen) > 10*time.Minute {
			delete(l.entries, ip)
		}
	}
}

// Middleware answers 429 once the caller's bucket is empty.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(60/max(l.perMin, 1)+1))
			httpx.JSONError(w, http.StatusTooManyRequests, "too_many_requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
