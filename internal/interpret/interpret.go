package interpret

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// ErrMalformedResponse is returned when no strategy recovers a JSON object.
var ErrMalformedResponse = errors.New("malformed model response")

// Decode tries each strategy in order and returns the first candidate that
// decodes into T. Only JSON objects are accepted, so "null" or a bare string is
// never reported as an empty success.
func Decode[T any](raw string, strategies ...Strategy) (T, error) {
	var zero T
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	var lastErr error
	for _, s := range strategies {
		candidate, ok := s.Extract(raw)
		if !ok {
			continue
		}
		if !strings.HasPrefix(candidate, "{") {
			lastErr = fmt.Errorf("%s: not a JSON object", s.Name)
			continue
		}
		var out T
		if err := json.Unmarshal([]byte(candidate), &out); err != nil {
			lastErr = fmt.Errorf("%s: %w", s.Name, err)
			continue
		}
		return out, nil
	}

	if lastErr == nil {
		return zero, fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}
	return zero, fmt.Errorf("%w: %v", ErrMalformedResponse, lastErr)
}

// Analysis parses a model reply into an AnalysisResult. Only the model-owned
// fields are read; numbers given as strings are accepted and ranges are passed
// through unchanged.
func Analysis(raw string) (*models.AnalysisResult, error) {
	reply, err := Decode[analysisReply](raw, DefaultStrategies()...)
	if err != nil {
		return nil, err
	}
	return reply.result(), nil
}

// Pattern parses an extraction reply into a PatternRecord, repairing sloppy JSON.
func Pattern(raw string) (*models.PatternRecord, error) {
	p, err := Decode[models.PatternRecord](raw, LenientStrategies()...)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
