// Package intent scores farmer queries against a closed set of intents with
// an ensemble of rule, statistical, embedding and LLM scorers.
package intent

import (
	"context"
	"math"
)

type Intent string

const (
	CropAdvice       Intent = "crop_advice"
	PolicyQuery      Intent = "policy_query"
	PriceQuery       Intent = "price_query"
	WeatherQuery     Intent = "weather_query"
	TechnicalSupport Intent = "technical_support"
	GeneralInquiry   Intent = "general_inquiry"
)

// All lists intents in declaration order, which is also the tie-break order.
var All = []Intent{CropAdvice, PolicyQuery, PriceQuery, WeatherQuery, TechnicalSupport, GeneralInquiry}

var descriptions = map[Intent]string{
	CropAdvice:       "Crop cultivation, fertilizers, pests, diseases, irrigation and yield advice",
	PolicyQuery:      "Government schemes, subsidies, loans, insurance and eligibility",
	PriceQuery:       "Mandi and market prices, rates, MSP and selling decisions",
	WeatherQuery:     "Weather forecasts, rainfall, temperature and climate conditions",
	TechnicalSupport: "Help with apps, portals, equipment, machinery and devices",
	GeneralInquiry:   "Greetings and general questions not covered by other categories",
}

func (i Intent) Description() string { return descriptions[i] }

func (i Intent) Valid() bool {
	_, ok := descriptions[i]
	return ok
}

// Scorer produces a score per intent. An empty map means the scorer saw no signal.
type Scorer interface {
	Name() string
	Score(ctx context.Context, text string) (Scores, error)
}

type Scores map[Intent]float64

// Normalize returns a copy that sums to 1, or nil when there is no positive mass.
func (s Scores) Normalize() Scores {
	var total float64
	for _, in := range All {
		if v := s[in]; v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			total += v
		}
	}
	if total <= 0 {
		return nil
	}
	out := make(Scores, len(All))
	for _, in := range All {
		v := s[in]
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		out[in] = v / total
	}
	return out
}

// Top returns the highest scoring intent; ties go to the earlier intent in All.
func (s Scores) Top() (Intent, float64) {
	best, bestScore := All[0], s[All[0]]
	for _, in := range All[1:] {
		if s[in] > bestScore {
			best, bestScore = in, s[in]
		}
	}
	return best, bestScore
}

// Margin is the gap between the best and second best score.
func (s Scores) Margin() float64 {
	first, second := math.Inf(-1), math.Inf(-1)
	for _, in := range All {
		v := s[in]
		switch {
		case v > first:
			first, second = v, first
		case v > second:
			second = v
		}
	}
	if math.IsInf(second, -1) {
		return first
	}
	return first - second
}

// ConfidenceLevel buckets a confidence into High, Medium or Low.
func ConfidenceLevel(c float64) string {
	switch {
	case c >= 0.8:
		return "High"
	case c >= 0.6:
		return "Medium"
	default:
		return "Low"
	}
}

// lowConfidenceDefault is returned for empty input or when no scorer has signal.
func lowConfidenceDefault() Scores {
	out := make(Scores, len(All))
	for _, in := range All {
		out[in] = 0.15
	}
	out[GeneralInquiry] = 0.25
	return out
}
