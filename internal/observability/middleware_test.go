package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestRequestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	h := RequestLoggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/product/all", nil)
	req.RemoteAddr = "198.51.100.7:5000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entry := lastLogLine(t, &buf)
	assert.Equal(t, "http_request", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "198.51.100.7", entry["ip"])
	assert.Equal(t, "203.0.113.9, 10.0.0.1", entry["forwarded_for"])
	assert.Contains(t, entry, "timestamp")
}

func TestRecoverMiddlewareWritesEnvelope(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info")

	h := RecoverMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")

	entry := lastLogLine(t, &buf)
	assert.Equal(t, "panic_recovered", entry["message"])
	assert.Equal(t, "error", entry["level"])
}

func TestLoggerFallsBackToInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "loud")

	logger.Debug("hidden", nil)
	assert.Empty(t, buf.String())

	logger.Warn("shown", map[string]any{"k": "v"})
	assert.Equal(t, "warning", lastLogLine(t, &buf)["level"])
}

func TestScrubEventRemovesTokens(t *testing.T) {
	event := &sentry.Event{Request: &sentry.Request{
		Cookies: "refreshToken=abc",
		Headers: map[string]string{"authorization": "Bearer abc", "Accept": "application/json"},
	}}

	got := scrubEvent(event, nil)
	assert.Empty(t, got.Request.Cookies)
	assert.Equal(t, "[scrubbed]", got.Request.Headers["authorization"])
	assert.Equal(t, "application/json", got.Request.Headers["Accept"])
}

func TestClientIPIgnoresForwardingHeadersByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:53211"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Real-IP", "203.0.113.10")
	assert.Equal(t, "198.51.100.7", ClientIP(req, false))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", ClientIP(req, false))
}

func TestClientIPTrustedProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.0.5:443"
	req.Header.Set("X-Forwarded-For", "6.6.6.6, 203.0.113.9 ")
	assert.Equal(t, "203.0.113.9", ClientIP(req, true))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "203.0.113.10")
	assert.Equal(t, "203.0.113.10", ClientIP(req, true))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "10.1.0.5", ClientIP(req, true))
}

func TestTimeoutMiddlewareDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := TimeoutMiddleware(0, next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
