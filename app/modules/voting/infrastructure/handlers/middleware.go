package votinghandlers

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// pruneThreshold is the minimum map size before a prune pass runs.
	pruneThreshold = 1000
	// maxIdleAge is the duration after which an idle client entry is eligible
	// for pruning.
	maxIdleAge = 15 * time.Minute
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter throttles vote traffic per client IP. Entries for idle
// clients are pruned inline once the map grows past pruneThreshold.
type ClientRateLimiter struct {
	clients map[string]*clientEntry
	mu      sync.Mutex
	r       rate.Limit
	b       int
}

func NewClientRateLimiter(r rate.Limit, b int) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients: make(map[string]*clientEntry),
		r:       r,
		b:       b,
	}
}

func (c *ClientRateLimiter) limiterFor(ip string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.clients) > pruneThreshold {
		cutoff := time.Now().Add(-maxIdleAge)
		for k, e := range c.clients {
			if e.lastSeen.Before(cutoff) {
				delete(c.clients, k)
			}
		}
	}

	e, exists := c.clients[ip]
	if !exists {
		e = &clientEntry{limiter: rate.NewLimiter(c.r, c.b)}
		c.clients[ip] = e
	}
	e.lastSeen = time.Now()

	return e.limiter
}

// RateLimitMiddleware returns a middleware that throttles requests per client
// IP. Vote admission quotas are enforced separately in the service; this only
// protects the HTTP surface from floods.
func RateLimitMiddleware(limiter *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.limiterFor(ip).Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
