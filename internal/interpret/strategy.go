// Package interpret recovers structured JSON from free-text model replies.
package interpret

import (
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Strategy extracts a JSON candidate from raw model output.
// Strategies are pure and report ok=false when they find nothing to try.
type Strategy struct {
	Name    string
	Extract func(raw string) (candidate string, ok bool)
}

var (
	reTaggedFence = regexp.MustCompile("(?is)```json[ \t]*\r?\n?(.*?)```")
	reAnyFence    = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")
)

// Whole treats the entire reply as the JSON document.
var Whole = Strategy{
	Name: "whole",
	Extract: func(raw string) (string, bool) {
		s := strings.TrimSpace(raw)
		return s, s != ""
	},
}

// TaggedFence takes the interior of the first ```json fenced block.
var TaggedFence = Strategy{
	Name:    "tagged_fence",
	Extract: fenceExtractor(reTaggedFence),
}

// AnyFence takes the interior of the first fenced block, with or without a tag.
var AnyFence = Strategy{
	Name:    "any_fence",
	Extract: fenceExtractor(reAnyFence),
}

// Repaired runs the outermost {...} span through a JSON repairer, which copes
// with single quotes and trailing commas.
var Repaired = Strategy{
	Name: "repaired",
	Extract: func(raw string) (string, bool) {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return "", false
		}
		fixed, err := jsonrepair.JSONRepair(raw[start : end+1])
		if err != nil {
			return "", false
		}
		return fixed, true
	},
}

// DefaultStrategies is the ordering used for analysis replies.
func DefaultStrategies() []Strategy {
	return []Strategy{Whole, TaggedFence, AnyFence}
}

// LenientStrategies extends DefaultStrategies with JSON repair.
func LenientStrategies() []Strategy {
	return append(DefaultStrategies(), Repaired)
}

func fenceExtractor(re *regexp.Regexp) func(string) (string, bool) {
	return func(raw string) (string, bool) {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			return "", false
		}
		s := strings.TrimSpace(m[1])
		return s, s != ""
	}
}
