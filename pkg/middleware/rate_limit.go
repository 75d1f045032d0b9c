package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// KeyFunc derives the bucket key for a request. An empty key skips
// the limiter for that request.
type KeyFunc func(c *gin.Context) string

type fixedWindow struct {
	count   int
	resetAt time.Time
}

// WindowLimiter counts requests per key in fixed windows. Once a key
// exceeds Max inside its window every further request gets a 429 with
// a retryAfter hint until the window resets. Stale buckets are swept
// lazily, at most once per two window lengths, so the limiter needs
// no background goroutine.
type WindowLimiter struct {
	Max    int
	Window time.Duration

	mu      sync.Mutex
	buckets map[string]*fixedWindow
	sweptAt time.Time
}

func NewWindowLimiter(max int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		Max:     max,
		Window:  window,
		buckets: make(map[string]*fixedWindow),
		sweptAt: time.Now(),
	}
}

// Allow records one hit for the key. It returns false and the time
// left in the window when the key is over its budget.
func (l *WindowLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.sweptAt) > 2*l.Window {
		for k, b := range l.buckets {
			if now.After(b.resetAt) {
				delete(l.buckets, k)
			}
		}

		l.sweptAt = now
	}

	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		l.buckets[key] = &fixedWindow{count: 1, resetAt: now.Add(l.Window)}
		return true, 0
	}

	b.count++
	if b.count > l.Max {
		return false, time.Until(b.resetAt)
	}

	return true, 0
}

// NewRateLimitMiddleware wraps a WindowLimiter as gin middleware.
func NewRateLimitMiddleware(l *WindowLimiter, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}

		ok, retryAfter := l.Allow(k)
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    "Trop de requêtes. Veuillez réessayer plus tard.",
				"retryAfter": int(retryAfter.Seconds()) + 1,
			})
			return
		}

		c.Next()
	}
}

// IPKey buckets requests by client IP.
func IPKey(c *gin.Context) string {
	return c.ClientIP()
}

// IPEmailKey buckets requests by IP plus the email field of the JSON
// body, so one address can't burn the budget for a whole NAT. The
// body is restored for the handler. Requests without a readable email
// fall back to the bare IP.
func IPEmailKey(c *gin.Context) string {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return c.ClientIP()
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		Email string `json:"email"`
	}

	if err := json.Unmarshal(body, &payload); err != nil || payload.Email == "" {
		return c.ClientIP()
	}

	return c.ClientIP() + ":" + strings.ToLower(strings.TrimSpace(payload.Email))
}
