package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hindsight/internal/analysis"
	"github.com/kiranshivaraju/hindsight/internal/cache"
	"github.com/kiranshivaraju/hindsight/internal/corpus"
	"github.com/kiranshivaraju/hindsight/internal/interpret"
	"github.com/kiranshivaraju/hindsight/pkg/models"
	"github.com/kiranshivaraju/hindsight/pkg/prompt"
)

// Analysis outcomes reported to the Observer.
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeCached   = "cached"
)

// AuditLog persists every analysis, degraded or not.
type AuditLog interface {
	CreateAnalysis(ctx context.Context, rec *models.AnalysisRecord) error
}

// Observer receives one call per completed Analyze.
type Observer interface {
	RecordAnalysis(d time.Duration, outcome string, selected int)
}

// AnalysisService orchestrates scoring, prompt construction, generation and
// interpretation for a single query.
type AnalysisService struct {
	provider models.AIProvider
	patterns *corpus.Store
	scorer   analysis.Scorer
	prompts  prompt.Builder
	timeout  time.Duration

	cache    cache.Cache
	cacheTTL time.Duration
	audit    AuditLog
	observer Observer
}

// Option configures an AnalysisService.
type Option func(*AnalysisService)

// WithTimeout bounds the generation call. Zero leaves it to the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(s *AnalysisService) { s.timeout = d }
}

func WithScorer(sc analysis.Scorer) Option {
	return func(s *AnalysisService) { s.scorer = sc }
}

// WithCache enables result caching for successful analyses. A zero ttl disables it.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *AnalysisService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithAuditLog(a AuditLog) Option {
	return func(s *AnalysisService) { s.audit = a }
}

func WithObserver(o Observer) Option {
	return func(s *AnalysisService) { s.observer = o }
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(provider models.AIProvider, patterns *corpus.Store, opts ...Option) *AnalysisService {
	s := &AnalysisService{
		provider: provider,
		patterns: patterns,
		scorer:   analysis.HeuristicScorer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProviderName reports the configured generation provider.
func (s *AnalysisService) ProviderName() string {
	return s.provider.Name()
}

// Analyze produces a regret analysis for q. The only error it returns is
// ErrCorpusUnavailable; generation and parse failures yield a degraded result
// with Error set, an empty OptionsAnalysis, and a nil Recommendation.
func (s *AnalysisService) Analyze(ctx context.Context, q models.UserQuery) (*models.AnalysisResult, error) {
	start := time.Now()

	snap := s.patterns.Snapshot()
	if snap == nil {
		return nil, ErrCorpusUnavailable
	}

	if res := s.lookup(ctx, snap, q); res != nil {
		s.observe(start, OutcomeCached, res.PatternsAnalyzed)
		return res, nil
	}

	scored := analysis.ScoreAll(s.scorer, q, snap.Patterns)
	selected := analysis.Select(scored, analysis.RetrievalLimit)
	text := s.prompts.BuildAnalysis(q, analysis.Top(selected, analysis.PromptLimit))

	result, err := s.generate(ctx, text, q)
	if err != nil {
		slog.Warn("analysis degraded", "provider", s.provider.Name(), "patterns", len(selected), "error", err)
		result = degraded(err)
	}

	result.ID = uuid.New()
	result.PatternsAnalyzed = len(selected)
	result.UserInput = q
	result.Provider = s.provider.Name()
	result.CreatedAt = time.Now().UTC()

	s.record(ctx, snap, q, result)

	outcome := OutcomeSuccess
	if result.Degraded() {
		outcome = OutcomeDegraded
	} else {
		s.remember(ctx, snap, q, result)
	}
	s.observe(start, outcome, len(selected))

	return result, nil
}

// generate runs the single model call and interprets its reply. Panics in the
// provider or interpreter are converted to errors.
func (s *AnalysisService) generate(ctx context.Context, text string, q models.UserQuery) (res *models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in analysis generation", "error", r)
			res = nil
			err = &CollaboratorError{Provider: s.provider.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.provider.Generate(ctx, text)
	if err != nil {
		return nil, &CollaboratorError{Provider: s.provider.Name(), Err: err}
	}

	res, err = interpret.Analysis(raw)
	if err != nil {
		return nil, err
	}

	res.OptionsAnalysis = reconcileOptions(q.Options, res.OptionsAnalysis)
	return res, nil
}

// reconcileOptions keeps only entries naming one of the query's options,
// rewriting each label to the query's spelling.
func reconcileOptions(options []string, got []models.OptionAnalysis) []models.OptionAnalysis {
	canonical := make(map[string]string, len(options))
	for _, o := range options {
		canonical[normalizeLabel(o)] = o
	}

	out := make([]models.OptionAnalysis, 0, len(got))
	for _, oa := range got {
		label, ok := canonical[normalizeLabel(oa.Option)]
		if !ok {
			slog.Warn("dropping analysis for unknown option", "option", oa.Option)
			continue
		}
		oa.Option = label
		out = append(out, oa)
	}
	return out
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func degraded(err error) *models.AnalysisResult {
	msg := "analysis unavailable"
	switch {
	case errors.Is(err, interpret.ErrMalformedResponse):
		msg = "failed to parse model response"
	case errors.Is(err, ErrInferenceTimeout):
		msg = "model call timed out"
	}
	return &models.AnalysisResult{
		OptionsAnalysis: []models.OptionAnalysis{},
		HiddenFactors:   []string{},
		Recommendation:  nil,
		OverallInsights: []string{},
		Error:           fmt.Sprintf("%s: %v", msg, err),
	}
}

func (s *AnalysisService) lookup(ctx context.Context, snap *corpus.Snapshot, q models.UserQuery) *models.AnalysisResult {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	data, ok, err := s.cache.Get(ctx, cache.AnalysisKey(snap.Version, q))
	if err != nil {
		slog.Warn("analysis cache read failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var res models.AnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		slog.Warn("discarding unreadable cached analysis", "error", err)
		return nil
	}
	return &res
}

func (s *AnalysisService) remember(ctx context.Context, snap *corpus.Snapshot, q models.UserQuery, res *models.AnalysisResult) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.AnalysisKey(snap.Version, q), data, s.cacheTTL); err != nil {
		slog.Warn("analysis cache write failed", "error", err)
	}
}

func (s *AnalysisService) record(ctx context.Context, snap *corpus.Snapshot, q models.UserQuery, res *models.AnalysisResult) {
	if s.audit == nil {
		return
	}
	rec := &models.AnalysisRecord{
		ID:               res.ID,
		Query:            q,
		Result:           res,
		Degraded:         res.Degraded(),
		PatternsAnalyzed: res.PatternsAnalyzed,
		Provider:         res.Provider,
		CorpusVersion:    snap.Version.String(),
		CreatedAt:        res.CreatedAt,
	}
	if res.Degraded() {
		msg := res.Error
		rec.ErrorMessage = &msg
	}
	if err := s.audit.CreateAnalysis(ctx, rec); err != nil {
		slog.Warn("storing analysis record failed", "analysis_id", res.ID, "error", err)
	}
}

func (s *AnalysisService) observe(start time.Time, outcome string, selected int) {
	if s.observer != nil {
		s.observer.RecordAnalysis(time.Since(start), outcome, selected)
	}
}
