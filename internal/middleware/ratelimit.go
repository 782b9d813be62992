package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-IP token bucket. Two instances run in the
// server: a general API limit and a stricter one on the auth routes, where
// even successful attempts count against the budget.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	done     chan struct{}
	once     sync.Once
}

// NewRateLimiter allows requests per window, e.g. (100, 15*time.Minute) for
// the general API and (10, time.Hour) for auth.
func NewRateLimiter(requests int, window, cleanupInterval time.Duration) *RateLimiter {
	// time.NewTicker panics on a non-positive interval, and the value comes
	// straight from the environment.
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	l := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		done:     make(chan struct{}),
	}
	go l.cleanup(cleanupInterval, 3*window)
	return l
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, found := l.visitors[ip]
	if !found {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()

	return v.limiter.Allow()
}

func (l *RateLimiter) Stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *RateLimiter) cleanup(interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-maxIdle)
			l.mu.Lock()
			for ip, v := range l.visitors {
				if v.lastSeen.Before(cutoff) {
					delete(l.visitors, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}
