package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hindsight/internal/api/response"
	"github.com/kiranshivaraju/hindsight/internal/corpus"
	"github.com/kiranshivaraju/hindsight/internal/store"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// ExtractionRunner starts extraction jobs and reports on them.
type ExtractionRunner interface {
	TriggerExtraction(ctx context.Context, limit int) (*models.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// Reloader re-reads the corpus from its source.
type Reloader interface {
	Reload(ctx context.Context) (*corpus.Snapshot, error)
}

type extractRequest struct {
	Limit int `json:"limit"`
}

type reloadResponse struct {
	Version     uuid.UUID `json:"version"`
	Patterns    int       `json:"patterns"`
	ExtractedAt string    `json:"extracted_at"`
}

// NewTriggerExtractionHandler returns an http.HandlerFunc for POST /api/v1/admin/extract.
func NewTriggerExtractionHandler(runner ExtractionRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extractRequest
		if !decodeBody(w, r, &req, true) {
			return
		}
		if req.Limit < 0 {
			response.InvalidField(w, "limit", "limit must not be negative")
			return
		}

		job, err := runner.TriggerExtraction(r.Context(), req.Limit)
		if err != nil {
			slog.Error("trigger extraction", "error", err)
			internalError(w)
			return
		}

		response.Accepted(w, map[string]any{
			"job_id":   job.ID,
			"status":   job.Status,
			"poll_url": "/api/v1/admin/jobs/" + job.ID.String(),
		})
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/admin/jobs/{id}.
func NewGetJobHandler(runner ExtractionRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		job, err := runner.GetJob(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				notFound(w, "Job")
				return
			}
			slog.Error("get job", "id", id, "error", err)
			internalError(w)
			return
		}

		response.JSON(w, job)
	}
}

// NewReloadHandler returns an http.HandlerFunc for POST /api/v1/admin/reload.
// A failed reload keeps the previous snapshot and answers 503.
func NewReloadHandler(reloader Reloader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := reloader.Reload(r.Context())
		if err != nil {
			slog.Error("reload corpus", "error", err)
			response.Error(w, http.StatusServiceUnavailable, "CORPUS_UNAVAILABLE",
				"Failed to reload pattern corpus", nil)
			return
		}

		response.JSON(w, reloadResponse{
			Version:     snap.Version,
			Patterns:    snap.Len(),
			ExtractedAt: snap.ExtractedAt,
		})
	}
}
