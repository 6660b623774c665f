package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"fotoforge/internal/config"
	"fotoforge/pkg/utils"
)

const (
	DefaultRequests = 20
	BurstSize       = 50

	VisitorTTL      = 5 * time.Minute
	CleanupInterval = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	enabled bool
	limit   rate.Limit
	burst   int
	code    string
	message string

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter builds a limiter from a config block. code and message are
// used for the 429 body.
func NewRateLimiter(conf config.RateLimitConfig, code, message string) *RateLimiter {
	window := config.Duration(conf.Window, time.Second)

	requests := conf.Requests
	if requests <= 0 {
		requests = DefaultRequests
	}
	burst := conf.Burst
	if burst <= 0 {
		burst = BurstSize
	}

	return &RateLimiter{
		enabled:  conf.Enabled,
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    burst,
		code:     code,
		message:  message,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow spends one token of ip's bucket.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = rl.now()
	return v.limiter.AllowN(v.lastSeen, 1)
}

// Middleware blocks excessive requests with a 429 JSON response.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enabled {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.Allow(utils.GetRealIP(r)) {
			utils.WriteError(w, http.StatusTooManyRequests, rl.code, rl.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup drops visitors idle for longer than VisitorTTL.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for ip, v := range rl.visitors {
		if rl.now().Sub(v.lastSeen) > VisitorTTL {
			delete(rl.visitors, ip)
			n++
		}
	}
	return n
}

// Run cleans up stale visitors until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}
