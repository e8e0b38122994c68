package nlp

import (
	"strings"
	"unicode"

	"github.com/pemistahl/lingua-go"
)

type Language string

const (
	Hindi   Language = "hi"
	English Language = "en"
)

// languageOrder breaks ties when picking the primary language.
var languageOrder = []Language{Hindi, English}

// LanguageModel is an optional statistical detector blended with the script rules.
type LanguageModel interface {
	Confidences(text string) map[Language]float64
}

type LanguageResult struct {
	Scores          map[Language]float64 `json:"scores"`
	PrimaryLanguage Language             `json:"primary_language"`
	IsCodeMixed     bool                 `json:"is_code_mixed"`
	ModelUsed       bool                 `json:"model_used"`
	// ModelFailed is set when an attached model produced no usable confidences.
	ModelFailed     bool                 `json:"-"`
}

type LanguageDetector struct {
	model          LanguageModel
	modelWeight    float64
	mixedThreshold float64
}

type LanguageOption func(*LanguageDetector)

// WithLanguageModel blends model confidences in with the given weight.
func WithLanguageModel(m LanguageModel, weight float64) LanguageOption {
	return func(d *LanguageDetector) {
		d.model = m
		d.modelWeight = weight
	}
}

func WithCodeMixedThreshold(t float64) LanguageOption {
	return func(d *LanguageDetector) { d.mixedThreshold = t }
}

func NewLanguageDetector(opts ...LanguageOption) *LanguageDetector {
	d := &LanguageDetector{mixedThreshold: 0.3}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HasModel reports whether a statistical model is attached.
func (d *LanguageDetector) HasModel() bool { return d.model != nil }

// Detect returns a hi/en distribution that always sums to 1.
func (d *LanguageDetector) Detect(text string) LanguageResult {
	rule, hasLetters := ruleLanguageScores(text)
	if !hasLetters {
		return d.finish(map[Language]float64{Hindi: 0, English: 1}, false)
	}

	scores := rule
	modelUsed, modelFailed := false, false
	if d.model != nil && d.modelWeight > 0 {
		if conf := normalizeLanguage(d.model.Confidences(text)); conf != nil {
			w := d.modelWeight
			scores = map[Language]float64{
				Hindi:   (1-w)*rule[Hindi] + w*conf[Hindi],
				English: (1-w)*rule[English] + w*conf[English],
			}
			modelUsed = true
		} else {
			modelFailed = true
		}
	}
	res := d.finish(scores, modelUsed)
	res.ModelFailed = modelFailed
	return res
}

func (d *LanguageDetector) finish(scores map[Language]float64, modelUsed bool) LanguageResult {
	norm := normalizeLanguage(scores)
	if norm == nil {
		norm = map[Language]float64{Hindi: 0, English: 1}
	}

	primary := languageOrder[0]
	for _, lang := range languageOrder[1:] {
		if norm[lang] > norm[primary] {
			primary = lang
		}
	}
	return LanguageResult{
		Scores:          norm,
		PrimaryLanguage: primary,
		IsCodeMixed:     norm[Hindi] > d.mixedThreshold && norm[English] > d.mixedThreshold,
		ModelUsed:       modelUsed,
	}
}

// normalizeLanguage scales hi/en to sum to exactly 1, or returns nil when empty.
func normalizeLanguage(in map[Language]float64) map[Language]float64 {
	hi, en := clampNonNegative(in[Hindi]), clampNonNegative(in[English])
	total := hi + en
	if total <= 0 {
		return nil
	}
	hi /= total
	return map[Language]float64{Hindi: hi, English: 1 - hi}
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// ruleLanguageScores weighs Devanagari against Latin letters. Latin words from
// the romanized Hindi lexicon count toward Hindi.
func ruleLanguageScores(text string) (map[Language]float64, bool) {
	var devanagari, latin, romanHindi int
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsMark(r)
	}) {
		var dev, lat int
		for _, r := range word {
			switch {
			case unicode.Is(unicode.Devanagari, r):
				dev++
			case unicode.Is(unicode.Latin, r):
				lat++
			}
		}
		devanagari += dev
		latin += lat
		if lat > 0 && dev == 0 {
			if _, ok := romanHindiWords[strings.ToLower(word)]; ok {
				romanHindi += lat
			}
		}
	}

	total := devanagari + latin
	if total == 0 {
		return nil, false
	}
	return map[Language]float64{
		Hindi:   float64(devanagari+romanHindi) / float64(total),
		English: float64(latin-romanHindi) / float64(total),
	}, true
}

// LinguaModel adapts lingua-go restricted to English and Hindi.
type LinguaModel struct {
	detector lingua.LanguageDetector
}

func NewLinguaModel() *LinguaModel {
	return &LinguaModel{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.Hindi).
			Build(),
	}
}

func (m *LinguaModel) Confidences(text string) map[Language]float64 {
	out := make(map[Language]float64, 2)
	for _, cv := range m.detector.ComputeLanguageConfidenceValues(text) {
		switch cv.Language() {
		case lingua.English:
			out[English] = cv.Value()
		case lingua.Hindi:
			out[Hindi] = cv.Value()
		}
	}
	return out
}
