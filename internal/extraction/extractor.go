// Package extraction turns raw regret stories into PatternRecords and runs
// extraction as background jobs.
package extraction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/hindsight/internal/interpret"
	"github.com/kiranshivaraju/hindsight/pkg/models"
	"github.com/kiranshivaraju/hindsight/pkg/prompt"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultConcurrency = 2
	defaultRatePerSec  = 10
)

// Extractor calls the generation provider once per story.
type Extractor struct {
	provider    models.AIProvider
	prompts     prompt.Builder
	concurrency int
	limiter     *rate.Limiter
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithConcurrency bounds the number of in-flight provider calls.
func WithConcurrency(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRate paces provider calls to perSec per second. Zero or less disables pacing.
func WithRate(perSec int) ExtractorOption {
	return func(e *Extractor) {
		if perSec <= 0 {
			e.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

func NewExtractor(provider models.AIProvider, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		provider:    provider,
		concurrency: defaultConcurrency,
		limiter:     rate.NewLimiter(rate.Limit(defaultRatePerSec), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractOne produces a pattern for a single story, stamped with its provenance.
func (e *Extractor) ExtractOne(ctx context.Context, story models.Story) (*models.PatternRecord, error) {
	raw, err := e.provider.Generate(ctx, e.prompts.BuildExtraction(story))
	if err != nil {
		return nil, fmt.Errorf("generate pattern for post %s: %w", story.ID, err)
	}

	p, err := interpret.Pattern(raw)
	if err != nil {
		return nil, fmt.Errorf("decode pattern for post %s: %w", story.ID, err)
	}

	p.SourcePostID = story.ID
	p.SourceSubreddit = story.Subreddit
	p.OriginalScore = story.Score
	return p, nil
}

// ExtractBatch extracts every story, dropping (and logging) the ones that fail.
// The result keeps input order. It only errors when ctx ends.
func (e *Extractor) ExtractBatch(ctx context.Context, stories []models.Story) ([]models.PatternRecord, error) {
	results := make([]*models.PatternRecord, len(stories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, story := range stories {
		g.Go(func() error {
			if err := e.limiter.Wait(gctx); err != nil {
				return err
			}
			p, err := e.ExtractOne(gctx, story)
			if err != nil {
				slog.Warn("pattern extraction failed", "post_id", story.ID, "error", err)
				return nil
			}
			results[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract batch: %w", err)
	}

	patterns := make([]models.PatternRecord, 0, len(stories))
	for _, p := range results {
		if p != nil {
			patterns = append(patterns, *p)
		}
	}
	slog.Info("extraction batch done", "stories", len(stories), "patterns", len(patterns))
	return patterns, nil
}
