package corpus

import (
	"strconv"

	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// AgeBrackets lists the age_distribution keys in display order.
var AgeBrackets = []string{"18-25", "26-35", "36-45", "46-55", "56+"}

// Summary is the aggregate view over a set of patterns.
type Summary struct {
	TotalPatterns        int                     `json:"total_patterns"`
	ExtractedAt          string                  `json:"extracted_at"`
	Categories           map[models.Category]int `json:"categories"`
	SeverityDistribution map[string]int          `json:"severity_distribution"`
	AgeDistribution      map[string]int          `json:"age_distribution"`
}

// Summarize aggregates patterns. Every severity key 1-10 and every age bracket is
// present even when its count is zero. Severities outside 1-10 and absent ages
// are not counted.
func Summarize(patterns []models.PatternRecord) Summary {
	s := Summary{
		TotalPatterns:        len(patterns),
		Categories:           make(map[models.Category]int),
		SeverityDistribution: make(map[string]int, 10),
		AgeDistribution:      make(map[string]int, len(AgeBrackets)),
	}
	for i := 1; i <= 10; i++ {
		s.SeverityDistribution[strconv.Itoa(i)] = 0
	}
	for _, b := range AgeBrackets {
		s.AgeDistribution[b] = 0
	}

	for _, p := range patterns {
		s.Categories[p.CategoryOrUnknown()]++

		if sev := p.Severity(); sev >= 1 && sev <= 10 {
			s.SeverityDistribution[strconv.Itoa(sev)]++
		}
		if age := p.DecidedAge(); age != 0 {
			s.AgeDistribution[ageBracket(age)]++
		}
	}
	return s
}

func ageBracket(age int) string {
	switch {
	case age < 26:
		return "18-25"
	case age < 36:
		return "26-35"
	case age < 46:
		return "36-45"
	case age < 56:
		return "46-55"
	default:
		return "56+"
	}
}

// GroupByCategory buckets patterns by category, preserving corpus order within each bucket.
func GroupByCategory(patterns []models.PatternRecord) map[models.Category][]models.PatternRecord {
	groups := make(map[models.Category][]models.PatternRecord)
	for _, p := range patterns {
		c := p.CategoryOrUnknown()
		groups[c] = append(groups[c], p)
	}
	return groups
}
