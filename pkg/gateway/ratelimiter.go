package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ClientRateLimiter implements sliding window rate limiting for one client
type ClientRateLimiter struct {
	mu                 sync.Mutex
	requestsPerMinute  int
	maxConcurrent      int
	requests           []time.Time
	concurrentRequests int
}

// NewClientRateLimiter creates a rate limiter with the given limits
func NewClientRateLimiter(requestsPerMinute, maxConcurrent int) *ClientRateLimiter {
	return &ClientRateLimiter{
		requestsPerMinute: requestsPerMinute,
		maxConcurrent:     maxConcurrent,
		requests:          make([]time.Time, 0),
	}
}

// Acquire reserves a slot when the limits allow it. Every successful Acquire
// must be paired with Release.
func (r *ClientRateLimiter) Acquire() (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.concurrentRequests >= r.maxConcurrent {
		return false, "too many concurrent requests"
	}

	now := time.Now()
	r.prune(now)
	if len(r.requests) >= r.requestsPerMinute {
		return false, "rate limit exceeded"
	}

	r.requests = append(r.requests, now)
	r.concurrentRequests++
	return true, ""
}

// Release frees a slot taken by Acquire
func (r *ClientRateLimiter) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.concurrentRequests > 0 {
		r.concurrentRequests--
	}
}

// Stats returns the requests in the current window and the in-flight count
func (r *ClientRateLimiter) Stats() (requestCount, concurrentCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(time.Now())
	return len(r.requests), r.concurrentRequests
}

func (r *ClientRateLimiter) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	valid := r.requests[:0]
	for _, t := range r.requests {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.requests = valid
}

// RateLimiter keeps one ClientRateLimiter per client IP
type RateLimiter struct {
	mu                sync.Mutex
	requestsPerMinute int
	maxConcurrent     int
	clients           map[string]*ClientRateLimiter
}

// NewRateLimiter creates a per-IP limiter
func NewRateLimiter(requestsPerMinute, maxConcurrent int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		maxConcurrent:     maxConcurrent,
		clients:           make(map[string]*ClientRateLimiter),
	}
}

// For returns the limiter for key, creating it on first use
func (l *RateLimiter) For(key string) *ClientRateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.clients[key]
	if !ok {
		limiter = NewClientRateLimiter(l.requestsPerMinute, l.maxConcurrent)
		l.clients[key] = limiter
	}
	return limiter
}

// Middleware rejects requests over the limit with 429
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := l.For(c.ClientIP())

		allowed, reason := limiter.Acquire()
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: reason})
			return
		}
		defer limiter.Release()

		c.Next()
	}
}
