package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimitKeyFunc func(r *http.Request) string

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket per key, by default per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	keyFn    RateLimitKeyFunc
	visitors map[string]*visitor
	idle     time.Duration
	onReject func(w http.ResponseWriter, r *http.Request)
}

// NewRateLimiter allows perMinute requests per key with a burst of the same
// size.
func NewRateLimiter(perMinute int, onReject func(w http.ResponseWriter, r *http.Request)) *RateLimiter {
	if onReject == nil {
		onReject = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		}
	}
	return &RateLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    max(perMinute, 1),
		keyFn:    func(r *http.Request) string { return ClientIP(r.Context()) },
		visitors: map[string]*visitor{},
		idle:     10 * time.Minute,
		onReject: onReject,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, k)
		}
	}
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Limit only throttles POST requests; page loads are never rejected.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		key := rl.keyFn(r)
		if key == "" {
			key = remoteIP(r)
		}
		if !rl.Allow(key) {
			retry := max(60/rl.burst, 1)
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			slog.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
			rl.onReject(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
