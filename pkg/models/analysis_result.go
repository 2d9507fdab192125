package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisResult is the structured regret analysis returned for a UserQuery.
// A degraded result carries Error, an empty OptionsAnalysis, and a nil Recommendation.
type AnalysisResult struct {
	ID              uuid.UUID        `json:"id"`
	OptionsAnalysis []OptionAnalysis `json:"options_analysis"`
	HiddenFactors   []string         `json:"hidden_factors"`
	Recommendation  *Recommendation  `json:"recommendation"`
	OverallInsights []string         `json:"overall_insights"`

	PatternsAnalyzed int       `json:"patterns_analyzed"`
	UserInput        UserQuery `json:"user_input"`
	Provider         string    `json:"provider,omitempty"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Degraded reports whether the result stands in for a failed analysis.
func (r *AnalysisResult) Degraded() bool {
	return r.Error != ""
}

// OptionAnalysis is the per-option section of an AnalysisResult. Numeric ranges
// (probability 0-100, severity 1-10) are requested from the model, not enforced.
type OptionAnalysis struct {
	Option                 string   `json:"option"`
	RegretProbability      float64  `json:"regret_probability"`
	RegretSeverity         float64  `json:"regret_severity"`
	Timeline               string   `json:"timeline"`
	SimilarSituationsCount int      `json:"similar_situations_count"`
	KeyInsights            []string `json:"key_insights"`
	QuotesExamples         []string `json:"quotes_examples"`
	Pros                   []string `json:"pros"`
	Cons                   []string `json:"cons"`
}

// Recommendation is the single suggested option with its reasoning.
type Recommendation struct {
	SuggestedOption string  `json:"suggested_option"`
	Reasoning       string  `json:"reasoning"`
	Confidence      float64 `json:"confidence"`
}

// AnalysisRecord is the audit-log row persisted for every analysis, degraded or not.
type AnalysisRecord struct {
	ID               uuid.UUID       `db:"id"                json:"id"`
	Query            UserQuery       `db:"query"             json:"query"`
	Result           *AnalysisResult `db:"result"            json:"result"`
	Degraded         bool            `db:"degraded"          json:"degraded"`
	ErrorMessage     *string         `db:"error_message"     json:"error_message,omitempty"`
	PatternsAnalyzed int             `db:"patterns_analyzed" json:"patterns_analyzed"`
	Provider         string          `db:"provider"          json:"provider"`
	CorpusVersion    string          `db:"corpus_version"    json:"corpus_version"`
	CreatedAt        time.Time       `db:"created_at"        json:"created_at"`
}
