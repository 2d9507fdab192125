package models

// Category is the decision category a regret pattern belongs to.
type Category string

const (
	CategoryCareer       Category = "career"
	CategoryRelationship Category = "relationship"
	CategoryEducation    Category = "education"
	CategoryFinancial    Category = "financial"
	CategoryHealth       Category = "health"
	CategoryLifestyle    Category = "lifestyle"
	CategoryUnknown      Category = "unknown"
)

// DefaultCategory is applied to queries that do not name a category.
const DefaultCategory = CategoryLifestyle

var validCategories = map[Category]bool{
	CategoryCareer:       true,
	CategoryRelationship: true,
	CategoryEducation:    true,
	CategoryFinancial:    true,
	CategoryHealth:       true,
	CategoryLifestyle:    true,
	CategoryUnknown:      true,
}

// Valid reports whether c is one of the enumerated categories. Matching is case-sensitive.
func (c Category) Valid() bool {
	return validCategories[c]
}

// PatternRecord is one historical decision-and-regret story in structured form.
// Records are immutable once loaded into the pattern store.
type PatternRecord struct {
	AgeWhenDecided    *int     `json:"age_when_decided"`
	AgeWhenRegretFelt *int     `json:"age_when_regret_felt"`
	DecisionMade      string   `json:"decision_made"`
	SituationContext  string   `json:"situation_context"`
	RegretSeverity    *int     `json:"regret_severity"`
	RegretReason      string   `json:"regret_reason"`
	PatternTags       []string `json:"pattern_tags"`
	DecisionCategory  Category `json:"decision_category"`

	// Provenance
	SourcePostID    string `json:"source_post_id,omitempty"`
	SourceSubreddit string `json:"source_subreddit,omitempty"`
	OriginalScore   int    `json:"original_score,omitempty"`
}

// DecidedAge returns the age at which the decision was made, or 0 when unrecorded.
func (p PatternRecord) DecidedAge() int {
	if p.AgeWhenDecided == nil {
		return 0
	}
	return *p.AgeWhenDecided
}

// Severity returns the recorded regret severity, or 0 when unrecorded.
func (p PatternRecord) Severity() int {
	if p.RegretSeverity == nil {
		return 0
	}
	return *p.RegretSeverity
}

// CategoryOrUnknown returns the pattern's category, mapping an empty value to unknown.
func (p PatternRecord) CategoryOrUnknown() Category {
	if p.DecisionCategory == "" {
		return CategoryUnknown
	}
	return p.DecisionCategory
}

// Corpus is the on-disk and in-database document holding the extracted patterns.
type Corpus struct {
	ExtractedAt   string          `json:"extracted_at"`
	TotalPatterns int             `json:"total_patterns"`
	Patterns      []PatternRecord `json:"patterns"`
}

// IntPtr returns a pointer to v. Handy for optional PatternRecord fields.
func IntPtr(v int) *int { return &v }
