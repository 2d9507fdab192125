package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hindsight/internal/ai/mock"
	"github.com/kiranshivaraju/hindsight/internal/analysis"
	"github.com/kiranshivaraju/hindsight/internal/corpus"
	"github.com/kiranshivaraju/hindsight/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAudit struct {
	mu      sync.Mutex
	records []*models.AnalysisRecord
	err     error
}

func (a *mockAudit) CreateAnalysis(_ context.Context, rec *models.AnalysisRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return a.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Delete(_ context.Context, key string) error { return nil }
func (c *mapCache) Ping(_ context.Context) error               { return nil }
func (c *mapCache) SetJobStatus(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) error {
	return nil
}
func (c *mapCache) GetJobStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	return "", false, nil
}
func (c *mapCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, nil
}

type mockObserver struct {
	mu       sync.Mutex
	outcomes []string
	selected []int
}

func (o *mockObserver) RecordAnalysis(_ time.Duration, outcome string, selected int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
	o.selected = append(o.selected, selected)
}

// --- fixtures ---

func sampleQuery() models.UserQuery {
	return models.UserQuery{
		Age:                 28,
		Situation:           "considering leaving stable job for startup",
		DecisionDescription: "Should I join the startup?",
		Options:             []string{"Stay", "Leave"},
		Category:            models.CategoryCareer,
	}
}

func relevantPattern(decision string) models.PatternRecord {
	return models.PatternRecord{
		AgeWhenDecided:   models.IntPtr(26),
		DecisionMade:     decision,
		SituationContext: "left stable job for startup",
		RegretSeverity:   models.IntPtr(6),
		DecisionCategory: models.CategoryCareer,
	}
}

func loadedStore(patterns ...models.PatternRecord) *corpus.Store {
	s := corpus.NewStore(nil)
	s.Replace(&models.Corpus{ExtractedAt: "2024-01-01 00:00:00", TotalPatterns: len(patterns), Patterns: patterns})
	return s
}

// --- tests ---

func TestAnalyze_CorpusUnavailable(t *testing.T) {
	called := false
	p := &mock.MockProvider{Name_: "mock", GenerateFunc: func(context.Context, string) (string, error) {
		called = true
		return "", nil
	}}
	svc := NewAnalysisService(p, corpus.NewStore(nil))

	res, err := svc.Analyze(context.Background(), sampleQuery())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrCorpusUnavailable)
	assert.False(t, called)
}

func TestAnalyze_Success(t *testing.T) {
	audit := &mockAudit{}
	obs := &mockObserver{}
	svc := NewAnalysisService(mock.NewMockProvider(), loadedStore(relevantPattern("a"), relevantPattern("b")),
		WithAuditLog(audit), WithObserver(obs), WithTimeout(time.Second))

	q := sampleQuery()
	res, err := svc.Analyze(context.Background(), q)
	require.NoError(t, err)

	assert.False(t, res.Degraded())
	assert.NotEqual(t, uuid.Nil, res.ID)
	assert.Equal(t, 2, res.PatternsAnalyzed)
	assert.Equal(t, q, res.UserInput)
	assert.Equal(t, "mock", res.Provider)
	require.Len(t, res.OptionsAnalysis, 2)
	require.NotNil(t, res.Recommendation)
	assert.Equal(t, "Leave", res.Recommendation.SuggestedOption)

	require.Len(t, audit.records, 1)
	assert.False(t, audit.records[0].Degraded)
	assert.Equal(t, res.ID, audit.records[0].ID)
	assert.Equal(t, []string{OutcomeSuccess}, obs.outcomes)
}

func TestAnalyze_EmptyCorpusIsNotUnavailable(t *testing.T) {
	svc := NewAnalysisService(mock.NewMockProvider(), loadedStore())

	res, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.Equal(t, 0, res.PatternsAnalyzed)
	assert.False(t, res.Degraded())
}

func TestAnalyze_SelectionBounds(t *testing.T) {
	var patterns []models.PatternRecord
	for i := 0; i < 30; i++ {
		patterns = append(patterns, relevantPattern("d"))
	}
	// No overlap and no age, category or severity signal: never selected.
	patterns = append(patterns, models.PatternRecord{DecisionMade: "irrelevant", SituationContext: "xyz"})

	var prompt string
	p := &mock.MockProvider{Name_: "mock", GenerateFunc: func(_ context.Context, text string) (string, error) {
		prompt = text
		return mock.AnalysisJSON, nil
	}}
	svc := NewAnalysisService(p, loadedStore(patterns...))

	res, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.Equal(t, 20, res.PatternsAnalyzed)
	assert.Equal(t, 10, strings.Count(prompt, `"id":`))
	assert.NotContains(t, prompt, "irrelevant")
}

func TestAnalyze_EndToEndExampleIsSelected(t *testing.T) {
	var prompt string
	p := &mock.MockProvider{Name_: "mock", GenerateFunc: func(_ context.Context, text string) (string, error) {
		prompt = text
		return mock.AnalysisJSON, nil
	}}
	svc := NewAnalysisService(p, loadedStore(relevantPattern("took the startup job")))

	res, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.Equal(t, 1, res.PatternsAnalyzed)
	assert.Contains(t, prompt, "took the startup job")
}

func TestAnalyze_MalformedReplyDegrades(t *testing.T) {
	audit := &mockAudit{}
	obs := &mockObserver{}
	svc := NewAnalysisService(mock.NewStaticProvider("Sorry, I can't produce JSON today."), loadedStore(relevantPattern("a")),
		WithAuditLog(audit), WithObserver(obs))

	q := sampleQuery()
	res, err := svc.Analyze(context.Background(), q)
	require.NoError(t, err)

	assert.True(t, res.Degraded())
	assert.Contains(t, res.Error, "parse")
	assert.NotNil(t, res.OptionsAnalysis)
	assert.Empty(t, res.OptionsAnalysis)
	assert.Nil(t, res.Recommendation)
	assert.Equal(t, q, res.UserInput)
	assert.Equal(t, 1, res.PatternsAnalyzed)

	require.Len(t, audit.records, 1)
	assert.True(t, audit.records[0].Degraded)
	require.NotNil(t, audit.records[0].ErrorMessage)
	assert.Equal(t, []string{OutcomeDegraded}, obs.outcomes)
}

func TestAnalyze_ProviderFailureDegrades(t *testing.T) {
	svc := NewAnalysisService(mock.NewFailingProvider(ErrProviderUnavailable), loadedStore(relevantPattern("a")))

	res, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Contains(t, res.Error, "mock-failing")
	assert.Nil(t, res.Recommendation)
}

func TestAnalyze_TimeoutDegrades(t *testing.T) {
	svc := NewAnalysisService(mock.NewTimeoutProvider(), loadedStore(relevantPattern("a")),
		WithTimeout(20*time.Millisecond))

	start := time.Now()
	res, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Contains(t, res.Error, "timed out")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAnalyze_PanicDegrades(t *testing.T) {
	p := &mock.MockProvider{Name_: "mock", GenerateFunc: func(context.Context, string) (string, error) {
		panic("provider exploded")
	}}
	svc := NewAnalysisService(p, loadedStore(relevantPattern("a")))

	res, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Contains(t, res.Error, "provider exploded")
}

func TestAnalyze_AuditFailureIsNotFatal(t *testing.T) {
	svc := NewAnalysisService(mock.NewMockProvider(), loadedStore(relevantPattern("a")),
		WithAuditLog(&mockAudit{err: errors.New("db down")}))

	res, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.False(t, res.Degraded())
}

func TestAnalyze_ReconcilesOptionLabels(t *testing.T) {
	reply := `{"options_analysis":[
		{"option":"  stay ","regret_probability":10},
		{"option":"Move abroad","regret_probability":90},
		{"option":"LEAVE","regret_probability":20}
	]}`
	svc := NewAnalysisService(mock.NewStaticProvider(reply), loadedStore(relevantPattern("a")))

	res, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	require.Len(t, res.OptionsAnalysis, 2)
	assert.Equal(t, "Stay", res.OptionsAnalysis[0].Option)
	assert.Equal(t, "Leave", res.OptionsAnalysis[1].Option)
	assert.NotNil(t, res.HiddenFactors)
	assert.NotNil(t, res.OverallInsights)
}

func TestAnalyze_CachesSuccessfulResults(t *testing.T) {
	calls := 0
	p := &mock.MockProvider{Name_: "mock", GenerateFunc: func(context.Context, string) (string, error) {
		calls++
		return mock.AnalysisJSON, nil
	}}
	store := loadedStore(relevantPattern("a"))
	obs := &mockObserver{}
	svc := NewAnalysisService(p, store, WithCache(newMapCache(), time.Minute), WithObserver(obs))

	first, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{OutcomeSuccess, OutcomeCached}, obs.outcomes)

	// A reload changes the snapshot version and bypasses old entries.
	store.Replace(&models.Corpus{Patterns: []models.PatternRecord{relevantPattern("b")}})
	_, err = svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestAnalyze_DoesNotCacheDegradedResults(t *testing.T) {
	calls := 0
	p := &mock.MockProvider{Name_: "mock", GenerateFunc: func(context.Context, string) (string, error) {
		calls++
		return "garbage", nil
	}}
	svc := NewAnalysisService(p, loadedStore(relevantPattern("a")), WithCache(newMapCache(), time.Minute))

	for i := 0; i < 2; i++ {
		res, err := svc.Analyze(context.Background(), sampleQuery())
		require.NoError(t, err)
		assert.True(t, res.Degraded())
	}
	assert.Equal(t, 2, calls)
}

func TestAnalyze_ConcurrentWithReload(t *testing.T) {
	store := loadedStore(relevantPattern("a"))
	svc := NewAnalysisService(mock.NewMockProvider(), store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				store.Replace(&models.Corpus{Patterns: []models.PatternRecord{relevantPattern("b"), relevantPattern("c")}})
			}
			res, err := svc.Analyze(context.Background(), sampleQuery())
			assert.NoError(t, err)
			assert.Contains(t, []int{1, 2}, res.PatternsAnalyzed)
		}(i)
	}
	wg.Wait()
}

func TestAnalyze_EchoedFieldsDoNotDegrade(t *testing.T) {
	reply := `{"id":"abc","created_at":"yesterday","user_input":{"age":"28"},"error":"",` +
		`"options_analysis":[{"option":"Stay","regret_probability":"30%"}],` +
		`"recommendation":{"suggested_option":"Stay","confidence":60}}`
	svc := NewAnalysisService(mock.NewStaticProvider(reply), loadedStore(relevantPattern("a")))

	q := sampleQuery()
	res, err := svc.Analyze(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, res.Degraded())
	assert.NotEqual(t, uuid.Nil, res.ID)
	assert.Equal(t, q, res.UserInput)
	require.Len(t, res.OptionsAnalysis, 1)
	assert.Equal(t, 30.0, res.OptionsAnalysis[0].RegretProbability)
	assert.NotNil(t, res.HiddenFactors)
}

func TestAnalyze_CustomScorer(t *testing.T) {
	var prompt string
	p := &mock.MockProvider{Name_: "mock", GenerateFunc: func(_ context.Context, pr string) (string, error) {
		prompt = pr
		return mock.AnalysisJSON, nil
	}}
	only := analysis.ScorerFunc(func(_ models.UserQuery, pat models.PatternRecord) float64 {
		if pat.DecisionMade == "kept decision" {
			return 1
		}
		return 0
	})
	svc := NewAnalysisService(p, loadedStore(relevantPattern("kept decision"), relevantPattern("skipped decision")),
		WithScorer(only))

	res, err := svc.Analyze(context.Background(), sampleQuery())
	require.NoError(t, err)
	assert.Equal(t, 1, res.PatternsAnalyzed)
	assert.Contains(t, prompt, "kept decision")
	assert.NotContains(t, prompt, "skipped decision")
	assert.Equal(t, "mock", svc.ProviderName())
}

func TestCollaboratorError_Unwrap(t *testing.T) {
	err := &CollaboratorError{Provider: "ollama", Err: ErrInferenceTimeout}
	assert.ErrorIs(t, err, ErrInferenceTimeout)
	assert.Contains(t, err.Error(), "ollama")
}
