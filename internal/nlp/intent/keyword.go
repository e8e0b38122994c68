package intent

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

type keyword struct {
	pattern *regexp.Regexp
	word    string
	weight  float64
}

type rawKeyword struct {
	word   string
	weight float64
}

var priceKeywords = []rawKeyword{
	{"price", 1.0},
	{"rate", 0.8},
	{"cost", 0.7},
	{"mandi", 0.8},
	{"market", 0.6},
	{"msp", 0.5},
	{"sell", 0.6},
	{"buy", 0.4},
	{"quintal", 0.5},
	{"modal", 0.6},
	{"how much", 0.5},
	{"rupees", 0.3},
	{"trend", 0.3},
	{"कीमत", 1.0},
	{"भाव", 1.0},
	{"दाम", 1.0},
	{"मंडी", 0.8},
}

var weatherKeywords = []rawKeyword{
	{"weather", 1.0},
	{"temperature", 0.8},
	{"rain", 0.9},
	{"rainfall", 0.9},
	{"drought", 0.7},
	{"flood", 0.7},
	{"humidity", 0.7},
	{"wind", 0.5},
	{"climate", 0.6},
	{"forecast", 0.9},
	{"seasonal", 0.3},
	{"monsoon", 0.8},
	{"hot", 0.4},
	{"cold", 0.4},
	{"dry", 0.3},
	{"wet", 0.3},
	{"storm", 0.7},
	{"cyclone", 0.8},
	{"heat wave", 0.8},
	{"frost", 0.7},
	{"hail", 0.7},
	{"snow", 0.5},
	{"sunny", 0.6},
	{"cloudy", 0.6},
	{"overcast", 0.5},
	{"मौसम", 1.0},
	{"बारिश", 0.9},
	{"तापमान", 0.8},
}

var policyKeywords = []rawKeyword{
	{"policy", 1.0},
	{"scheme", 1.0},
	{"subsidy", 1.0},
	{"loan", 0.8},
	{"insurance", 0.8},
	{"government", 0.7},
	{"pm kisan", 1.0},
	{"pm-kisan", 1.0},
	{"pmksy", 1.0},
	{"pmfby", 1.0},
	{"soil health card", 0.8},
	{"kisan-credit-card", 1.0},
	{"procurement", 0.6},
	{"msp", 0.5},
	{"guidelines", 0.5},
	{"procedure", 0.4},
	{"apply", 0.5},
	{"eligibility", 0.8},
	{"eligible", 0.7},
	{"benefit", 0.5},
	{"assistance", 0.4},
	{"fund", 0.3},
	{"grant", 0.5},
	{"certificate", 0.4},
	{"registration", 0.4},
	{"योजना", 1.0},
	{"सब्सिडी", 1.0},
	{"सरकारी", 0.7},
}

var cropKeywords = []rawKeyword{
	{"crop", 0.5},
	{"grow", 0.7},
	{"cultivation", 0.8},
	{"cultivate", 0.8},
	{"sow", 0.7},
	{"seed", 0.6},
	{"variety", 0.5},
	{"fertilizer", 0.8},
	{"manure", 0.6},
	{"urea", 0.7},
	{"dap", 0.7},
	{"npk", 0.7},
	{"pest", 0.9},
	{"insect", 0.7},
	{"disease", 0.9},
	{"fungus", 0.7},
	{"blight", 0.8},
	{"wilt", 0.7},
	{"weed", 0.6},
	{"yellow", 0.4},
	{"leaves", 0.5},
	{"yield", 0.7},
	{"harvest", 0.5},
	{"irrigation", 0.6},
	{"irrigate", 0.6},
	{"water", 0.4},
	{"soil", 0.5},
	{"spacing", 0.5},
	{"treatment", 0.6},
	{"remedy", 0.6},
	{"pesticide", 0.8},
	{"organic", 0.5},
	{"compost", 0.5},
	{"advice", 0.4},
	{"farming", 0.3},
	{"फसल", 0.5},
	{"खाद", 0.8},
	{"रोग", 0.9},
	{"कीट", 0.9},
}

var technicalKeywords = []rawKeyword{
	{"app", 0.8},
	{"login", 0.9},
	{"password", 0.9},
	{"error", 0.8},
	{"bug", 0.8},
	{"crash", 0.8},
	{"not working", 0.9},
	{"website", 0.7},
	{"portal", 0.6},
	{"otp", 0.8},
	{"account", 0.6},
	{"install", 0.7},
	{"sensor", 0.7},
	{"drone", 0.6},
	{"tractor", 0.5},
	{"machine", 0.5},
	{"equipment", 0.4},
	{"pump", 0.5},
	{"repair", 0.8},
	{"technical", 0.8},
	{"how to use", 0.6},
	{"device", 0.6},
	{"software", 0.8},
	{"sms", 0.5},
}

var generalKeywords = []rawKeyword{
	{"hello", 0.8},
	{"hi", 0.6},
	{"namaste", 0.8},
	{"thanks", 0.7},
	{"thank you", 0.7},
	{"who are you", 0.8},
	{"what can you do", 0.8},
	{"help", 0.4},
	{"information", 0.3},
	{"नमस्ते", 0.8},
	{"धन्यवाद", 0.7},
}

// compileKeywords anchors ASCII keywords on \b and allows common suffixes on
// single words. Non-ASCII keywords need explicit letter boundaries.
func compileKeywords(raws []rawKeyword) []keyword {
	out := make([]keyword, len(raws))
	for i, rk := range raws {
		quoted := regexp.QuoteMeta(rk.word)
		var pattern string
		switch {
		case !isASCII(rk.word):
			pattern = `(?:^|[^\p{L}\p{M}])` + quoted + `(?:[^\p{L}\p{M}]|$)`
		case strings.Contains(rk.word, " ") || strings.Contains(rk.word, "-"):
			pattern = `(?i)\b` + quoted + `\b`
		default:
			pattern = `(?i)\b` + quoted + `(?:es|s|ed|ing)?\b`
		}
		out[i] = keyword{pattern: regexp.MustCompile(pattern), word: rk.word, weight: rk.weight}
	}
	return out
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

var defaultKeywords = map[Intent][]keyword{
	PriceQuery:       compileKeywords(priceKeywords),
	WeatherQuery:     compileKeywords(weatherKeywords),
	PolicyQuery:      compileKeywords(policyKeywords),
	CropAdvice:       compileKeywords(cropKeywords),
	TechnicalSupport: compileKeywords(technicalKeywords),
	GeneralInquiry:   compileKeywords(generalKeywords),
}

// KeywordScorer is the rule scorer: weighted keyword hits per intent.
type KeywordScorer struct {
	keywords map[Intent][]keyword
	baseline float64
}

// NewKeywordScorer gives general_inquiry a constant baseline once any keyword
// fires, so queries with weak signal lean toward it.
func NewKeywordScorer(baseline float64) *KeywordScorer {
	return &KeywordScorer{keywords: defaultKeywords, baseline: baseline}
}

func (k *KeywordScorer) Name() string { return "rule" }

// Score reports no signal when no keyword matched.
func (k *KeywordScorer) Score(_ context.Context, text string) (Scores, error) {
	raw, signals := k.Matches(text)
	if len(signals) == 0 {
		return Scores{}, nil
	}
	raw[GeneralInquiry] += k.baseline
	return raw.Normalize(), nil
}

// Matches returns raw weighted totals and the keywords that fired, per intent.
func (k *KeywordScorer) Matches(text string) (Scores, map[Intent][]string) {
	raw := make(Scores, len(All))
	signals := make(map[Intent][]string)
	for _, in := range All {
		for _, kw := range k.keywords[in] {
			if kw.pattern.MatchString(text) {
				raw[in] += kw.weight
				signals[in] = append(signals[in], kw.word)
			}
		}
	}
	return raw, signals
}
