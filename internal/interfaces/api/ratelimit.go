package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// pruneThreshold bounds the tracked-client map; past it, clients whose whole
// window has expired are dropped on the next call.
const pruneThreshold = 1024

// rateLimiter counts accepted calls per client over a rolling window.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string][]time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string][]time.Time),
	}
}

func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)

	if len(rl.clients) > pruneThreshold {
		rl.prune(cutoff)
	}

	kept := rl.clients[key][:0]
	for _, t := range rl.clients[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.clients[key] = kept
		return false
	}
	rl.clients[key] = append(kept, now)
	return true
}

func (rl *rateLimiter) prune(cutoff time.Time) {
	for key, stamps := range rl.clients {
		expired := true
		for _, t := range stamps {
			if t.After(cutoff) {
				expired = false
				break
			}
		}
		if expired {
			delete(rl.clients, key)
		}
	}
}

// RateLimit rejects callers exceeding limit requests per window, keyed by
// client IP.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	rl := newRateLimiter(limit, window)

	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
