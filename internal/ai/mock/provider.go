package mock

import (
	"context"

	"github.com/kiranshivaraju/hindsight/internal/ai/transport"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// AnalysisJSON is the canned reply of NewMockProvider. It analyzes the options
// "Stay" and "Leave".
const AnalysisJSON = `{
  "options_analysis": [
    {
      "option": "Stay",
      "regret_probability": 40,
      "regret_severity": 5,
      "timeline": "2-5 years",
      "similar_situations_count": 3,
      "key_insights": ["Comfort fades faster than expected"],
      "quotes_examples": ["I stayed too long"],
      "pros": ["Stability"],
      "cons": ["Slower growth"]
    },
    {
      "option": "Leave",
      "regret_probability": 25,
      "regret_severity": 4,
      "timeline": "1-2 years",
      "similar_situations_count": 2,
      "key_insights": ["Early moves compound"],
      "quotes_examples": ["Best decision I made"],
      "pros": ["Growth"],
      "cons": ["Short-term risk"]
    }
  ],
  "hidden_factors": ["Financial runway"],
  "recommendation": {
    "suggested_option": "Leave",
    "reasoning": "Lower regret probability among similar patterns",
    "confidence": 65
  },
  "overall_insights": ["Inaction is regretted more often than action"]
}`

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_        string
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "", nil
}

// NewMockProvider returns a MockProvider replying with AnalysisJSON.
func NewMockProvider() *MockProvider {
	return NewStaticProvider(AnalysisJSON)
}

// NewStaticProvider returns a MockProvider that always replies with text.
func NewStaticProvider(text string) *MockProvider {
	return &MockProvider{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, _ string) (string, error) {
			return text, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _ string) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		GenerateFunc: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", transport.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
