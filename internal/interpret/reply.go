package interpret

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"

	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// analysisReply holds only the fields the model is asked to produce. Anything
// else in the reply (an echoed id, created_at, user_input...) is ignored.
type analysisReply struct {
	OptionsAnalysis []optionReply        `json:"options_analysis"`
	HiddenFactors   texts                `json:"hidden_factors"`
	Recommendation  *recommendationReply `json:"recommendation"`
	OverallInsights texts                `json:"overall_insights"`
}

type optionReply struct {
	Option                 text   `json:"option"`
	RegretProbability      number `json:"regret_probability"`
	RegretSeverity         number `json:"regret_severity"`
	Timeline               text   `json:"timeline"`
	SimilarSituationsCount number `json:"similar_situations_count"`
	KeyInsights            texts  `json:"key_insights"`
	QuotesExamples         texts  `json:"quotes_examples"`
	Pros                   texts  `json:"pros"`
	Cons                   texts  `json:"cons"`
}

type recommendationReply struct {
	SuggestedOption text   `json:"suggested_option"`
	Reasoning       text   `json:"reasoning"`
	Confidence      number `json:"confidence"`
}

// UnmarshalJSON also accepts a bare string naming the suggested option.
func (r *recommendationReply) UnmarshalJSON(b []byte) error {
	if isString(b) {
		return json.Unmarshal(b, &r.SuggestedOption)
	}
	type plain recommendationReply
	return json.Unmarshal(b, (*plain)(r))
}

func (r analysisReply) result() *models.AnalysisResult {
	res := &models.AnalysisResult{
		OptionsAnalysis: make([]models.OptionAnalysis, 0, len(r.OptionsAnalysis)),
		HiddenFactors:   r.HiddenFactors.strings(),
		OverallInsights: r.OverallInsights.strings(),
	}
	for _, o := range r.OptionsAnalysis {
		res.OptionsAnalysis = append(res.OptionsAnalysis, models.OptionAnalysis{
			Option:                 string(o.Option),
			RegretProbability:      float64(o.RegretProbability),
			RegretSeverity:         float64(o.RegretSeverity),
			Timeline:               string(o.Timeline),
			SimilarSituationsCount: int(math.Round(float64(o.SimilarSituationsCount))),
			KeyInsights:            o.KeyInsights.strings(),
			QuotesExamples:         o.QuotesExamples.strings(),
			Pros:                   o.Pros.strings(),
			Cons:                   o.Cons.strings(),
		})
	}
	if r.Recommendation != nil {
		res.Recommendation = &models.Recommendation{
			SuggestedOption: string(r.Recommendation.SuggestedOption),
			Reasoning:       string(r.Recommendation.Reasoning),
			Confidence:      float64(r.Recommendation.Confidence),
		}
	}
	return res
}

var leadingNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// number decodes JSON numbers and the first number inside a string ("35%",
// "about 7/10"). Values with no number in them decode as 0.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	*n = 0
	if isString(b) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if m := leadingNumber.FindString(s); m != "" {
			f, err := strconv.ParseFloat(m, 64)
			if err == nil {
				*n = number(f)
			}
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = number(f)
	}
	return nil
}

// text decodes strings as-is and any other scalar as its JSON literal.
// null decodes as "".
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case isString(b):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	case bytes.Equal(b, []byte("null")):
		*t = ""
	default:
		*t = text(b)
	}
	return nil
}

// texts decodes a list of text values; a single value becomes a one-item list.
type texts []text

func (ts *texts) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*ts = nil
		return nil
	case len(b) > 0 && b[0] == '[':
		var list []text
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*ts = list
		return nil
	}
	var one text
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*ts = texts{one}
	return nil
}

func (ts texts) strings() []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, string(t))
	}
	return out
}

func isString(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '"'
}
