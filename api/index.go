package api

import (
	"net/http"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"store-api/internal/app"
	"store-api/internal/config"
	"store-api/internal/respond"
)

var (
	initOnce   sync.Once
	apiRuntime *app.Runtime
	initErr    error
)

// Handler is the serverless entry point. The runtime is built once per
// instance; the refresh-token sweep is triggered over HTTP instead of cron.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		cfg, err := config.Load(false)
		if err != nil {
			initErr = err
			return
		}
		apiRuntime, initErr = app.Build(cfg, app.Options{})
	})

	if initErr != nil {
		respond.Fail(w, http.StatusInternalServerError, "application bootstrap failed")
		return
	}

	apiRuntime.Handler.ServeHTTP(w, r)
}
