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

// ThrottleConfig tunes the global per-IP token bucket that sits in
// front of every route. The fixed-window limiters on sensitive routes
// handle abuse budgets, this one only smooths bursts.
type ThrottleConfig struct {
	RequestsPerSecond int
	Burst             int
	CleanupInterval   time.Duration
	TTL               time.Duration
}

type throttle struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	cfg      ThrottleConfig
}

func (t *throttle) getVisitor(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, exists := t.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(t.cfg.RequestsPerSecond), t.cfg.Burst)
		t.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (t *throttle) cleanupVisitors() {
	for {
		time.Sleep(t.cfg.CleanupInterval)

		t.mu.Lock()
		for ip, v := range t.visitors {
			if time.Since(v.lastSeen) > t.cfg.TTL {
				delete(t.visitors, ip)
			}
		}
		t.mu.Unlock()
	}
}

func NewThrottleMiddleware(cfg ThrottleConfig) gin.HandlerFunc {
	if cfg.Burst == 0 {
		cfg.Burst = cfg.RequestsPerSecond
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.TTL == 0 {
		cfg.TTL = 3 * time.Minute
	}

	t := &throttle{
		visitors: make(map[string]*visitor),
		cfg:      cfg,
	}

	go t.cleanupVisitors()

	return func(c *gin.Context) {
		if !t.getVisitor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Trop de requêtes. Veuillez réessayer plus tard.",
			})
			return
		}

		c.Next()
	}
}
