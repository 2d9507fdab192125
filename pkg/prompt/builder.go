// Package prompt renders the natural-language prompts sent to the generation model.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/hindsight/pkg/models"
)

const (
	// MaxPatterns bounds the patterns embedded in an analysis prompt.
	MaxPatterns = 10
	// MaxComments bounds the comments embedded in an extraction prompt.
	MaxComments = 3

	notAvailable = "N/A"
	notSpecified = "Not specified"
)

// Builder constructs prompt strings.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type Builder struct{}

// patternSummary is the per-pattern entry of the analysis prompt. Absent fields
// hold the "N/A" placeholder instead of being omitted.
type patternSummary struct {
	ID         int `json:"id"`
	Decision   any `json:"decision"`
	Context    any `json:"context"`
	Severity   any `json:"severity"`
	Reason     any `json:"reason"`
	AgeDecided any `json:"age_decided"`
	Category   any `json:"category"`
}

// BuildAnalysis returns the regret analysis prompt for q over the given patterns.
// Only the first MaxPatterns patterns are included.
func (b Builder) BuildAnalysis(q models.UserQuery, patterns []models.PatternRecord) string {
	var sb strings.Builder

	sb.WriteString("User Situation:\n")
	fmt.Fprintf(&sb, "Age: %d\n", q.Age)
	fmt.Fprintf(&sb, "Context: %s\n", q.Situation)
	fmt.Fprintf(&sb, "Decision: %s\n", q.DecisionDescription)
	fmt.Fprintf(&sb, "Options: %s\n", strings.Join(q.Options, ", "))
	fmt.Fprintf(&sb, "Goals/Values: %s\n", orDefault(q.Goals, notSpecified))
	fmt.Fprintf(&sb, "Timeline: %s\n", orDefault(q.Timeline, notSpecified))
	sb.WriteString("\nRegret Pattern Database (similar situations):\n")
	sb.WriteString(b.summarizePatterns(patterns))
	sb.WriteString("\n\n")
	sb.WriteString(analysisInstructions)

	return sb.String()
}

// BuildExtraction returns the prompt asking the model to turn one story into a
// structured pattern record.
func (b Builder) BuildExtraction(story models.Story) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Title: %s\n\n", story.Title)
	if story.Body != "" {
		fmt.Fprintf(&sb, "Story: %s\n\n", story.Body)
	}
	if len(story.TopComments) > 0 {
		sb.WriteString("Top Comments:\n")
		for i, c := range story.TopComments {
			if i == MaxComments {
				break
			}
			fmt.Fprintf(&sb, "- %s\n", c.Body)
		}
	}

	return "Analyze this regret story and extract structured data:\n\nStory: " +
		sb.String() + "\n" + extractionInstructions
}

func (b Builder) summarizePatterns(patterns []models.PatternRecord) string {
	if len(patterns) > MaxPatterns {
		patterns = patterns[:MaxPatterns]
	}

	summaries := make([]patternSummary, 0, len(patterns))
	for i, p := range patterns {
		summaries = append(summaries, patternSummary{
			ID:         i + 1,
			Decision:   textOrNA(p.DecisionMade),
			Context:    textOrNA(p.SituationContext),
			Severity:   intOrNA(p.RegretSeverity),
			Reason:     textOrNA(p.RegretReason),
			AgeDecided: intOrNA(p.AgeWhenDecided),
			Category:   textOrNA(string(p.DecisionCategory)),
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// Encoding a slice of plain structs cannot fail.
	_ = enc.Encode(summaries)
	return strings.TrimRight(buf.String(), "\n")
}

func textOrNA(s string) any {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func intOrNA(v *int) any {
	if v == nil {
		return notAvailable
	}
	return *v
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

const analysisInstructions = `Analyze this situation and provide a comprehensive regret analysis. For each option the user is considering:

1. Calculate regret probability (0-100%) based on similar patterns
2. Identify regret severity (1-10) and typical timeline (when regret emerges)
3. Extract 3-5 key insights from similar stories
4. Find 2-3 direct quotes or examples from people who made similar choices
5. Detect any hidden high-stakes factors they might be overlooking
6. Provide specific recommendation with reasoning

Return your analysis as a JSON object with this structure:
{
  "options_analysis": [
    {
      "option": "<option name, exactly as listed in Options>",
      "regret_probability": <number 0-100>,
      "regret_severity": <number 1-10>,
      "timeline": "<when regret typically emerges>",
      "similar_situations_count": <integer>,
      "key_insights": ["<insight1>", "<insight2>", ...],
      "quotes_examples": ["<quote1>", "<quote2>", ...],
      "pros": ["<pro1>", "<pro2>", ...],
      "cons": ["<con1>", "<con2>", ...]
    }
  ],
  "hidden_factors": ["<factor1>", "<factor2>", ...],
  "recommendation": {
    "suggested_option": "<option name>",
    "reasoning": "<detailed reasoning>",
    "confidence": <number 0-100>
  },
  "overall_insights": ["<insight1>", "<insight2>", ...]
}

Be quantitative where possible. Make it emotionally resonant but data-driven.`

const extractionInstructions = `Extract and return ONLY a valid JSON object with this exact structure:
{
  "age_when_decided": <number or null>,
  "age_when_regret_felt": <number or null>,
  "decision_made": "<specific decision>",
  "situation_context": "<circumstances around decision>",
  "regret_severity": <1-10>,
  "regret_reason": "<why they regret it>",
  "pattern_tags": ["<tag1>", "<tag2>"],
  "decision_category": "<career/relationship/education/financial/health/lifestyle>"
}

Be specific and extract actual details from the story. If information is not available, use null for numbers and empty strings for text.`
