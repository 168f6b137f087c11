package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"store-api/internal/respond"
)

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		now := time.Now().UTC().Format(time.RFC3339)
		if err := database.PingContext(ctx); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, "degraded", map[string]any{"status": "degraded", "time": now})
			return
		}
		respond.JSON(w, http.StatusOK, "ok", map[string]any{"status": "ok", "time": now})
	}
}
