package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimiterWindow(t *testing.T) {
	limiter := NewLoginRateLimiter(2, time.Minute, false)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ok, _ := limiter.allow("10.0.0.1", start)
	assert.True(t, ok)
	ok, _ = limiter.allow("10.0.0.1", start.Add(10*time.Second))
	assert.True(t, ok)

	ok, retryAfter := limiter.allow("10.0.0.1", start.Add(20*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retryAfter)

	ok, _ = limiter.allow("10.0.0.2", start.Add(20*time.Second))
	assert.True(t, ok, "limits are per ip")

	ok, _ = limiter.allow("10.0.0.1", start.Add(61*time.Second))
	assert.True(t, ok, "oldest hit left the window")
}

func TestLoginRateLimiterDefaults(t *testing.T) {
	limiter := NewLoginRateLimiter(0, 0, false)
	assert.Equal(t, 10, limiter.maxHits)
	assert.Equal(t, time.Minute, limiter.window)
}

func TestLoginRateLimiterMiddleware(t *testing.T) {
	limiter := NewLoginRateLimiter(1, time.Minute, true)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	calls := 0
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.4")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "too many login attempts", envelope(t, rec)["message"])
	assert.Equal(t, 1, calls)
}

func TestLoginRateLimiterIgnoresForwardedForByDefault(t *testing.T) {
	limiter := NewLoginRateLimiter(3, time.Minute, false)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	passed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = fmt.Sprintf("203.0.113.9:%d", 40000+i)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			passed++
		}
	}

	assert.Equal(t, 3, passed)
}

func TestLoginRateLimiterTrustedProxyUsesAppendedHop(t *testing.T) {
	limiter := NewLoginRateLimiter(1, time.Minute, true)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(spoofed string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.1.0.5:443"
		req.Header.Set("X-Forwarded-For", spoofed+", 198.51.100.20")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("2.2.2.2"))
}
