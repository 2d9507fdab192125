// Package analysis ranks regret patterns against a user query.
package analysis

import (
	"sort"

	"github.com/kiranshivaraju/hindsight/pkg/models"
)

const (
	// RetrievalLimit bounds the working set of candidate patterns.
	RetrievalLimit = 20
	// PromptLimit bounds the patterns embedded in a prompt.
	PromptLimit = 10
)

// ScoredPattern pairs a pattern with its relevance score for one analysis.
type ScoredPattern struct {
	Pattern models.PatternRecord
	Score   float64
}

// ScoreAll scores every pattern in corpus order and drops those scoring zero.
// Returns empty slice for empty input (never nil).
func ScoreAll(s Scorer, q models.UserQuery, patterns []models.PatternRecord) []ScoredPattern {
	scored := make([]ScoredPattern, 0, len(patterns))
	for _, p := range patterns {
		score := s.Score(q, p)
		if score <= 0 {
			continue
		}
		scored = append(scored, ScoredPattern{Pattern: p, Score: score})
	}
	return scored
}

// Select returns at most limit patterns ordered by score descending. Equal
// scores keep their input order. A non-positive limit means RetrievalLimit.
func Select(scored []ScoredPattern, limit int) []models.PatternRecord {
	if limit <= 0 {
		limit = RetrievalLimit
	}

	ranked := make([]ScoredPattern, 0, len(scored))
	for _, sp := range scored {
		if sp.Score > 0 {
			ranked = append(ranked, sp)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]models.PatternRecord, len(ranked))
	for i, sp := range ranked {
		out[i] = sp.Pattern
	}
	return out
}

// Top returns the first n patterns of an already ranked slice.
func Top(patterns []models.PatternRecord, n int) []models.PatternRecord {
	if len(patterns) <= n {
		return patterns
	}
	return patterns[:n]
}
