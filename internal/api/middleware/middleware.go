// Package middleware carries the gin middleware stack for the HTTP demo
// server, adapted from the teacher's internal/middleware package.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter enforces a minimum gap between requests from the same
// caller, keyed by the X-Account-ID header (the teacher keys by
// X-Client-ID; this repo's callers identify themselves by account id
// rather than a client string).
type RateLimiter struct {
	clients map[string]time.Time
	mu      sync.Mutex
	limit   time.Duration
}

// NewRateLimiter constructs a limiter enforcing at least limit between
// requests from a given account.
func NewRateLimiter(limit time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]time.Time),
		limit:   limit,
	}
}

// Middleware returns the gin handler enforcing the rate limit.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetHeader("X-Account-ID")
		if accountID == "" {
			accountID = c.ClientIP()
		}
		r.mu.Lock()
		last, exists := r.clients[accountID]
		if exists && time.Since(last) < r.limit {
			r.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		r.clients[accountID] = time.Now()
		r.mu.Unlock()
		c.Next()
	}
}
