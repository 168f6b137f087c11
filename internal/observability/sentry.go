package observability

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

// Headers that carry bearer or refresh tokens are never forwarded to Sentry.
var scrubbedHeaders = []string{"Authorization", "Cookie", "Set-Cookie"}

func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
		BeforeSend:       scrubEvent,
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event == nil || event.Request == nil {
		return event
	}

	event.Request.Cookies = ""
	for name := range event.Request.Headers {
		for _, scrubbed := range scrubbedHeaders {
			if http.CanonicalHeaderKey(name) == scrubbed {
				event.Request.Headers[name] = "[scrubbed]"
			}
		}
	}

	return event
}
