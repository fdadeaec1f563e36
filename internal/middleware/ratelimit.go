package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

type windowEntry struct {
	requests []time.Time
	mu       sync.Mutex
}

// RateLimiter allows max requests per client IP within a sliding window.
type RateLimiter struct {
	name   string
	max    int
	window time.Duration
	store  sync.Map
	log    *zap.Logger
}

func NewRateLimiter(name string, max int, window time.Duration, log *zap.Logger) *RateLimiter {
	return &RateLimiter{name: name, max: max, window: window, log: log}
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	cutoff := now.Add(-rl.window)

	v, _ := rl.store.LoadOrStore(ip, &windowEntry{})
	entry := v.(*windowEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	filtered := entry.requests[:0]
	for _, t := range entry.requests {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	entry.requests = filtered

	if len(entry.requests) >= rl.max {
		return false
	}

	entry.requests = append(entry.requests, now)
	return true
}

// ClientIP strips the port from RemoteAddr. RealIP has already replaced
// RemoteAddr with the forwarded address when the service runs behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !rl.allow(ip, time.Now()) {
			rl.log.Warn("rate limit exceeded", zap.String("limiter", rl.name), zap.String("ip", ip))
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeJSONError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
