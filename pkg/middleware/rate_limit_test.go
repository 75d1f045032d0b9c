package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLimiterBudget(t *testing.T) {
	l := NewWindowLimiter(3, time.Minute)

	for range 3 {
		ok, _ := l.Allow("a")
		assert.True(t, ok)
	}

	ok, retryAfter := l.Allow("a")
	assert.False(t, ok)
	assert.Positive(t, retryAfter)

	// Other keys keep their own budget
	ok, _ = l.Allow("b")
	assert.True(t, ok)
}

func TestWindowLimiterReset(t *testing.T) {
	l := NewWindowLimiter(1, 20*time.Millisecond)

	ok, _ := l.Allow("a")
	require.True(t, ok)

	ok, _ = l.Allow("a")
	require.False(t, ok)

	time.Sleep(30 * time.Millisecond)

	ok, _ = l.Allow("a")
	assert.True(t, ok)
}

func TestWindowLimiterSweep(t *testing.T) {
	l := NewWindowLimiter(1, 10*time.Millisecond)

	l.Allow("a")
	l.Allow("b")

	time.Sleep(25 * time.Millisecond)

	// Any call after two windows triggers the sweep
	l.Allow("c")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.buckets, "a")
	assert.NotContains(t, l.buckets, "b")
	assert.Contains(t, l.buckets, "c")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/",
		NewRateLimitMiddleware(NewWindowLimiter(2, time.Minute), IPKey),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	for range 2 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "retryAfter")
}

func TestIPEmailKeyRestoresBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var handlerBody string

	router := gin.New()
	router.POST("/",
		NewRateLimitMiddleware(NewWindowLimiter(10, time.Minute), IPEmailKey),
		func(c *gin.Context) {
			b, _ := io.ReadAll(c.Request.Body)
			handlerBody = string(b)
			c.Status(http.StatusOK)
		},
	)

	payload := `{"email":"User@Example.com"}`

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, payload, handlerBody)
}

func TestIPEmailKeyBucketsPerEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"User@Example.com"}`))

	key := IPEmailKey(c)
	assert.True(t, strings.HasSuffix(key, ":user@example.com"))

	// No email in the body falls back to the bare IP
	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))

	assert.NotContains(t, IPEmailKey(c2), ":")
}
