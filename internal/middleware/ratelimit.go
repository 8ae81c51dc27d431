package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// client represents a rate-limited client with request count and window start.
type client struct {
	windowStart time.Time
	count       int
}

// Limiter counts requests per client IP in fixed windows.
// Every call that reaches the provider costs API quota, so the API caps
// callers well below the provider's own limits.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewLimiter allows limit requests per window for each client IP.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		clients: make(map[string]*client),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow records one request for key and reports whether it is within the limit.
// Stale entries are dropped as they are encountered.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.clients[key]
	if !ok || now.Sub(cl.windowStart) > l.window {
		l.clients[key] = &client{windowStart: now, count: 1}
		l.sweep(now)
		return l.limit > 0
	}
	cl.count++
	return cl.count <= l.limit
}

// sweep removes clients whose window has expired. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	for k, cl := range l.clients {
		if now.Sub(cl.windowStart) > l.window {
			delete(l.clients, k)
		}
	}
}

// RateLimiter returns a middleware answering 429 once a client exceeds l.
//
// Usage:
//
//	router.Use(middleware.RateLimiter(middleware.NewLimiter(60, time.Minute)))
//
// Response when limit exceeded:
//
//	HTTP/1.1 429 Too Many Requests
//	{"message": "rate limit exceeded", "timestamp": "...", "request_id": "..."}
func RateLimiter(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody(c, "rate limit exceeded", nil))
			return
		}
		c.Next()
	}
}
