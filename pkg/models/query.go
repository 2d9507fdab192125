package models

import (
	"fmt"
	"strings"
)

// UserQuery is a validated analysis request. The analysis core assumes every
// required field is present and well-typed.
type UserQuery struct {
	Age                 int      `json:"age"`
	Situation           string   `json:"situation"`
	DecisionDescription string   `json:"decision_description"`
	Options             []string `json:"options"`
	Goals               string   `json:"goals,omitempty"`
	Timeline            string   `json:"timeline,omitempty"`
	Category            Category `json:"category,omitempty"`
}

// EffectiveCategory returns the query category, defaulting to lifestyle when unset.
func (q UserQuery) EffectiveCategory() Category {
	if q.Category == "" {
		return DefaultCategory
	}
	return q.Category
}

// ValidationError reports a malformed or missing request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "missing required field: " + e.Field
	}
	return e.Field + " " + e.Reason
}

// AnalyzeRequest is the raw boundary shape of an analysis request. Pointer fields
// distinguish "absent" from zero values.
type AnalyzeRequest struct {
	Age                 *int     `json:"age"`
	Situation           *string  `json:"situation"`
	DecisionDescription *string  `json:"decision_description"`
	Options             []string `json:"options"`
	Goals               string   `json:"goals,omitempty"`
	Timeline            string   `json:"timeline,omitempty"`
	Category            string   `json:"category,omitempty"`
}

// Validate checks required fields in a fixed order (age, situation,
// decision_description, options) and returns the first failure as a *ValidationError.
func (r AnalyzeRequest) Validate() (UserQuery, error) {
	if r.Age == nil {
		return UserQuery{}, &ValidationError{Field: "age"}
	}
	if *r.Age < 0 {
		return UserQuery{}, &ValidationError{Field: "age", Reason: "must be a non-negative integer"}
	}
	if r.Situation == nil {
		return UserQuery{}, &ValidationError{Field: "situation"}
	}
	if strings.TrimSpace(*r.Situation) == "" {
		return UserQuery{}, &ValidationError{Field: "situation", Reason: "must not be empty"}
	}
	if r.DecisionDescription == nil {
		return UserQuery{}, &ValidationError{Field: "decision_description"}
	}
	if strings.TrimSpace(*r.DecisionDescription) == "" {
		return UserQuery{}, &ValidationError{Field: "decision_description", Reason: "must not be empty"}
	}
	if r.Options == nil {
		return UserQuery{}, &ValidationError{Field: "options"}
	}
	if len(r.Options) == 0 {
		return UserQuery{}, &ValidationError{Field: "options", Reason: "must contain at least one option"}
	}

	seen := make(map[string]bool, len(r.Options))
	options := make([]string, 0, len(r.Options))
	for _, opt := range r.Options {
		label := strings.TrimSpace(opt)
		if label == "" {
			return UserQuery{}, &ValidationError{Field: "options", Reason: "must not contain blank labels"}
		}
		if seen[label] {
			return UserQuery{}, &ValidationError{Field: "options", Reason: fmt.Sprintf("must be distinct (duplicate %q)", label)}
		}
		seen[label] = true
		options = append(options, label)
	}

	category := Category(strings.TrimSpace(r.Category))
	if category != "" && !category.Valid() {
		return UserQuery{}, &ValidationError{
			Field:  "category",
			Reason: "must be one of career, relationship, education, financial, health, lifestyle, unknown",
		}
	}

	return UserQuery{
		Age:                 *r.Age,
		Situation:           *r.Situation,
		DecisionDescription: *r.DecisionDescription,
		Options:             options,
		Goals:               strings.TrimSpace(r.Goals),
		Timeline:            strings.TrimSpace(r.Timeline),
		Category:            category,
	}, nil
}
