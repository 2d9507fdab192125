package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/hindsight/internal/api/response"
)

// Pinger checks a dependency's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type corpusHealth struct {
	Status   string `json:"status"`
	Patterns int    `json:"patterns"`
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health.
// A failing database or cache answers 503. An unloaded corpus is reported but
// does not degrade health. db may be nil when no database is configured.
func NewHealthHandler(db, c Pinger, patterns SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if db == nil {
			checks["database"] = "disabled"
		} else if err := db.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		ch := corpusHealth{Status: "not_loaded"}
		if snap := patterns.Snapshot(); snap != nil {
			ch = corpusHealth{Status: "ok", Patterns: snap.Len()}
		}

		if checks["database"] == "degraded" || checks["cache"] == "degraded" {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", map[string]any{
					"services": checks,
					"corpus":   ch,
				})
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
			"corpus":   ch,
		})
	}
}
