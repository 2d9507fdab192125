package handler

import (
	"net/http"

	"github.com/kiranshivaraju/hindsight/internal/api/response"
	"github.com/kiranshivaraju/hindsight/internal/corpus"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// NewSummaryHandler returns an http.HandlerFunc for GET /api/v1/patterns.
func NewSummaryHandler(patterns SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := patterns.Snapshot()
		if snap == nil {
			corpusUnavailable(w)
			return
		}
		response.JSON(w, snap.Summary())
	}
}

// NewCategoriesHandler returns an http.HandlerFunc for GET /api/v1/categories.
// ?category= narrows the result to one group.
func NewCategoriesHandler(patterns SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := patterns.Snapshot()
		if snap == nil {
			corpusUnavailable(w)
			return
		}

		groups := corpus.GroupByCategory(snap.Patterns)

		if c := r.URL.Query().Get("category"); c != "" {
			category := models.Category(c)
			if !category.Valid() {
				response.InvalidField(w, "category", "Unknown category "+c)
				return
			}
			group := groups[category]
			if group == nil {
				group = []models.PatternRecord{}
			}
			response.Collection(w, map[models.Category][]models.PatternRecord{category: group}, len(group))
			return
		}

		response.Collection(w, groups, snap.Len())
	}
}
