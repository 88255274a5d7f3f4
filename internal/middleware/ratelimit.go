// Package middleware holds the HTTP middleware shared across routes.
package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Pedrom2002/airline-satisfaction-webapp/httpx"
)

// RateLimiter applies a per-client token bucket to selected paths. The
// auth endpoints use it to slow down credential stuffing: 10 requests per
// minute per remote address, mirroring the account-level lockout that the
// auth service enforces separately.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows n requests per minute with the same burst.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
	}
}

func (rl *RateLimiter) take(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = b
	}
	b.lastSeen = time.Now()
	if len(rl.clients) > 10000 {
		rl.prune()
	}
	return b.limiter.Allow()
}

// prune drops buckets idle for an hour; callers hold the lock.
func (rl *RateLimiter) prune() {
	cutoff := time.Now().Add(-time.Hour)
	for key, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Wrap limits next by client address and answers 429 when the bucket is
// empty.
func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !rl.take(host) {
			httpx.JSONError(w, http.StatusTooManyRequests, "rate_limited", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
