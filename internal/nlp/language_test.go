package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeModel map[Language]float64

func (f fakeModel) Confidences(string) map[Language]float64 { return f }

func TestLanguageDetector_Detect(t *testing.T) {
	d := NewLanguageDetector()
	tests := []struct {
		name      string
		text      string
		primary   Language
		codeMixed bool
	}{
		{"english", "How to grow wheat in sandy soil", English, false},
		{"devanagari", "पानी कब देना चाहिए", Hindi, false},
		{"romanized hindi", "mera gehun ka bhav kya hai", Hindi, false},
		{"hinglish", "mera wheat crop ka price kya hai", Hindi, true},
		{"mixed scripts", "मेरी wheat crop का price क्या है", Hindi, true},
		{"no letters", "12345 !!!", English, false},
		{"empty", "", English, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Detect(tt.text)
			assert.InDelta(t, 1.0, res.Scores[Hindi]+res.Scores[English], 1e-9)
			assert.Equal(t, tt.primary, res.PrimaryLanguage)
			assert.Equal(t, tt.codeMixed, res.IsCodeMixed)
		})
	}
}

func TestLanguageDetector_PaniIsMajorityHindi(t *testing.T) {
	res := NewLanguageDetector().Detect("खेत में पानी कितना देना है")
	assert.Greater(t, res.Scores[Hindi], 0.5)
	assert.Equal(t, Hindi, res.PrimaryLanguage)
}

func TestLanguageDetector_ModelBlend(t *testing.T) {
	d := NewLanguageDetector(WithLanguageModel(fakeModel{Hindi: 2, English: 0}, 0.4))
	res := d.Detect("wheat price")

	assert.True(t, res.ModelUsed)
	assert.False(t, res.ModelFailed)
	assert.InDelta(t, 0.4, res.Scores[Hindi], 1e-9)
	assert.InDelta(t, 0.6, res.Scores[English], 1e-9)
	assert.True(t, res.IsCodeMixed)
}

func TestLanguageDetector_ModelWithoutOutputFallsBackToRules(t *testing.T) {
	d := NewLanguageDetector(WithLanguageModel(fakeModel{}, 0.4))
	res := d.Detect("wheat price")

	assert.False(t, res.ModelUsed)
	assert.True(t, res.ModelFailed)
	assert.InDelta(t, 1.0, res.Scores[English], 1e-9)
}

func TestLanguageDetector_Threshold(t *testing.T) {
	text := "mera wheat crop ka price kya hai"
	assert.True(t, NewLanguageDetector(WithCodeMixedThreshold(0.3)).Detect(text).IsCodeMixed)
	assert.False(t, NewLanguageDetector(WithCodeMixedThreshold(0.49)).Detect(text).IsCodeMixed)
}
