package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"
)

// Health answers GET /healthz. It reports 503 when the database is unreachable.
func Health(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
