package analysis

import (
	"testing"

	"github.com/kiranshivaraju/hindsight/pkg/models"
)

func pattern(age int, category models.Category, context string, severity int) models.PatternRecord {
	p := models.PatternRecord{
		DecisionCategory: category,
		SituationContext: context,
	}
	if age > 0 {
		p.AgeWhenDecided = models.IntPtr(age)
	}
	if severity > 0 {
		p.RegretSeverity = models.IntPtr(severity)
	}
	return p
}

// --- AgeProximity ---

func TestAgeProximity(t *testing.T) {
	tests := []struct {
		name     string
		queryAge int
		decided  int
		expected int
	}{
		{"exact match", 30, 30, 20},
		{"one year older", 30, 31, 18},
		{"one year younger", 30, 29, 18},
		{"five years", 30, 35, 10},
		{"boundary ten years", 30, 40, 0},
		{"beyond ten years", 30, 41, 0},
		{"far younger", 60, 20, 0},
		{"age not recorded", 30, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AgeProximity(tt.queryAge, pattern(tt.decided, "", "", 0))
			if got != tt.expected {
				t.Errorf("AgeProximity(%d, %d) = %d, want %d", tt.queryAge, tt.decided, got, tt.expected)
			}
		})
	}
}

func TestAgeProximity_MonotonicallyDecreasing(t *testing.T) {
	prev := AgeProximity(40, pattern(40, "", "", 0))
	for diff := 1; diff <= 12; diff++ {
		got := AgeProximity(40, pattern(40+diff, "", "", 0))
		if got > prev {
			t.Fatalf("score increased at diff %d: %d > %d", diff, got, prev)
		}
		if got != max(0, (10-diff)*2) {
			t.Errorf("diff %d: got %d, want %d", diff, got, max(0, (10-diff)*2))
		}
		prev = got
	}
}

// --- CategoryMatch ---

func TestCategoryMatch(t *testing.T) {
	tests := []struct {
		name     string
		query    models.Category
		pattern  models.Category
		expected int
	}{
		{"exact match", models.CategoryCareer, models.CategoryCareer, 20},
		{"different category", models.CategoryCareer, models.CategoryHealth, 0},
		{"case sensitive", models.CategoryCareer, "Career", 0},
		{"pattern without category", models.CategoryCareer, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategoryMatch(tt.query, pattern(0, tt.pattern, "", 0))
			if got != tt.expected {
				t.Errorf("CategoryMatch(%q, %q) = %d, want %d", tt.query, tt.pattern, got, tt.expected)
			}
		})
	}
}

// --- LexicalOverlap ---

func TestLexicalOverlap(t *testing.T) {
	tests := []struct {
		name      string
		situation string
		context   string
		expected  int
	}{
		{"no overlap", "moving abroad", "stable job", 0},
		{"case insensitive", "Stable JOB", "stable job", 2},
		{"order independent", "job stable", "stable job", 2},
		{"duplicates counted once", "job job job", "job job", 1},
		{"whitespace variants", "stable\tjob\n  offer", "job offer", 2},
		{"empty situation", "", "stable job", 0},
		{"empty context", "stable job", "", 0},
		{"punctuation is part of token", "job,", "job", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LexicalOverlap(tt.situation, tt.context)
			if got != tt.expected {
				t.Errorf("LexicalOverlap(%q, %q) = %d, want %d", tt.situation, tt.context, got, tt.expected)
			}
		})
	}
}

// --- SeverityWeight ---

func TestSeverityWeight(t *testing.T) {
	if got := SeverityWeight(pattern(0, "", "", 7)); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if got := SeverityWeight(pattern(0, "", "", 0)); got != 0 {
		t.Errorf("expected 0 for unrecorded severity, got %d", got)
	}
}

// --- HeuristicScorer ---

func TestHeuristicScorer_EndToEndExample(t *testing.T) {
	q := models.UserQuery{
		Age:                 25,
		Situation:           "stable job but want to start a business",
		DecisionDescription: "quit job?",
		Options:             []string{"stay", "quit"},
		Category:            models.CategoryCareer,
	}
	p := pattern(27, models.CategoryCareer, "stable job business", 6)

	got := HeuristicScorer{}.Score(q, p)
	// age 16 + category 20 + overlap 3 (stable, job, business) + severity 6
	if got != 45 {
		t.Errorf("expected 45, got %v", got)
	}
	if got < 43 {
		t.Errorf("score must be at least 43, got %v", got)
	}
}

func TestHeuristicScorer_DefaultCategoryIsLifestyle(t *testing.T) {
	q := models.UserQuery{Age: 30}
	got := HeuristicScorer{}.Score(q, pattern(0, models.CategoryLifestyle, "", 0))
	if got != 20 {
		t.Errorf("expected lifestyle default to match for 20, got %v", got)
	}
}

func TestHeuristicScorer_NoSignalIsZero(t *testing.T) {
	q := models.UserQuery{Age: 20, Situation: "moving abroad", Category: models.CategoryCareer}
	got := HeuristicScorer{}.Score(q, pattern(70, models.CategoryHealth, "retirement savings", 0))
	if got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}
