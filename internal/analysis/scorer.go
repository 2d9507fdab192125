package analysis

import (
	"strings"

	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// Heuristic weights.
const (
	maxAgeDiff       = 10
	ageWeight        = 2
	categoryMatchPts = 20
)

// Scorer computes a non-negative relevance score between a query and a pattern.
// A score of zero means no relevance was detected.
type Scorer interface {
	Score(q models.UserQuery, p models.PatternRecord) float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(q models.UserQuery, p models.PatternRecord) float64

func (f ScorerFunc) Score(q models.UserQuery, p models.PatternRecord) float64 { return f(q, p) }

// HeuristicScorer is the additive lexical/keyword scorer. Zero value is ready to use.
type HeuristicScorer struct{}

// Score sums the age, category, overlap and severity terms.
func (HeuristicScorer) Score(q models.UserQuery, p models.PatternRecord) float64 {
	total := AgeProximity(q.Age, p) +
		CategoryMatch(q.EffectiveCategory(), p) +
		LexicalOverlap(q.Situation, p.SituationContext) +
		SeverityWeight(p)
	return float64(total)
}

// AgeProximity returns (10 - |diff|) * 2 when the pattern records a decision age
// within 10 years of age, and 0 otherwise.
func AgeProximity(age int, p models.PatternRecord) int {
	decided := p.DecidedAge()
	if decided <= 0 {
		return 0
	}
	diff := decided - age
	if diff < 0 {
		diff = -diff
	}
	if diff > maxAgeDiff {
		return 0
	}
	return (maxAgeDiff - diff) * ageWeight
}

// CategoryMatch returns 20 on an exact, case-sensitive category match and 0 otherwise.
func CategoryMatch(category models.Category, p models.PatternRecord) int {
	if p.DecisionCategory == category {
		return categoryMatchPts
	}
	return 0
}

// LexicalOverlap returns the number of distinct lower-cased whitespace tokens
// shared by the two texts.
func LexicalOverlap(situation, context string) int {
	if situation == "" || context == "" {
		return 0
	}
	words := wordSet(situation)
	shared := 0
	for w := range wordSet(context) {
		if words[w] {
			shared++
		}
	}
	return shared
}

// SeverityWeight returns the pattern's recorded severity, or 0 when unrecorded.
func SeverityWeight(p models.PatternRecord) int {
	if s := p.Severity(); s > 0 {
		return s
	}
	return 0
}

func wordSet(text string) map[string]bool {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

var _ Scorer = HeuristicScorer{}
