package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/kiranshivaraju/hindsight/internal/api/middleware"
	"github.com/kiranshivaraju/hindsight/internal/api/response"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	// Metrics and MetricsHandler are optional.
	Metrics        mw.RequestRecorder
	MetricsHandler http.Handler

	HealthHandler      http.HandlerFunc
	AnalyzeHandler     http.HandlerFunc
	GetAnalysisHandler http.HandlerFunc
	SummaryHandler     http.HandlerFunc
	CategoriesHandler  http.HandlerFunc

	ExtractHandler   http.HandlerFunc
	GetJobHandler    http.HandlerFunc
	ReloadHandler    http.HandlerFunc
	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	if deps.Metrics != nil {
		r.Use(mw.Metrics(deps.Metrics))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/analyze", orNotImplemented(deps.AnalyzeHandler))
		r.Get("/api/v1/analyses/{id}", orNotImplemented(deps.GetAnalysisHandler))

		r.Get("/api/v1/patterns", orNotImplemented(deps.SummaryHandler))
		r.Get("/api/v1/categories", orNotImplemented(deps.CategoriesHandler))

		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Use(deps.Auth.RequireScope(models.ScopeAdmin))

			r.Post("/extract", orNotImplemented(deps.ExtractHandler))
			r.Get("/jobs/{id}", orNotImplemented(deps.GetJobHandler))
			r.Post("/reload", orNotImplemented(deps.ReloadHandler))

			r.Post("/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/keys/{id}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
