// Package respond writes the JSON envelope shared by every handler:
// {message, ...payload} on success and {message, error} on failure.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/getsentry/sentry-go"

	"store-api/internal/apperr"
)

func JSON(w http.ResponseWriter, status int, message string, payload map[string]any) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["message"] = message

	write(w, status, body)
}

func Error(w http.ResponseWriter, err error) {
	appErr := apperr.As(err)
	if appErr.Kind == apperr.KindInternal {
		sentry.CaptureException(err)
	}

	write(w, appErr.Kind.Status(), map[string]string{
		"message": appErr.Message,
		"error":   appErr.Detail(),
	})
}

// Fail writes an error envelope without going through the error taxonomy.
// Used by middleware that already knows the status (rate limiting, panics).
func Fail(w http.ResponseWriter, status int, message string) {
	write(w, status, map[string]string{
		"message": message,
		"error":   http.StatusText(status),
	})
}

func NotFound(w http.ResponseWriter, _ *http.Request) {
	Fail(w, http.StatusNotFound, "route not found")
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
