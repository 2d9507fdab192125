package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hindsight/internal/ai"
	"github.com/kiranshivaraju/hindsight/internal/api/response"
	"github.com/kiranshivaraju/hindsight/internal/store"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, q models.UserQuery) (*models.AnalysisResult, error)
}

// AnalysisReader reads the analysis audit log.
type AnalysisReader interface {
	GetAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisRecord, error)
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
// Degraded analyses are still 200 responses; their error field is set.
func NewAnalyzeHandler(svc Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.AnalyzeRequest
		if !decodeBody(w, r, &req, false) {
			return
		}

		q, err := req.Validate()
		if err != nil {
			var ve *models.ValidationError
			if errors.As(err, &ve) {
				response.InvalidField(w, ve.Field, ve.Error())
				return
			}
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		result, err := svc.Analyze(r.Context(), q)
		if err != nil {
			if errors.Is(err, ai.ErrCorpusUnavailable) {
				corpusUnavailable(w)
				return
			}
			slog.Error("analyze", "error", err)
			internalError(w)
			return
		}

		response.JSON(w, result)
	}
}

// NewGetAnalysisHandler returns an http.HandlerFunc for GET /api/v1/analyses/{id}.
func NewGetAnalysisHandler(records AnalysisReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		rec, err := records.GetAnalysis(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				notFound(w, "Analysis")
				return
			}
			slog.Error("get analysis", "id", id, "error", err)
			internalError(w)
			return
		}

		response.JSON(w, rec)
	}
}
