package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONCompleter asks an LLM for a JSON document.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, system, prompt string) (string, error)
}

const zeroShotSystem = "You are an intent classifier for an agricultural assistant serving Indian farmers. " +
	"Queries may be in English, Hindi or a mix of both. Reply with JSON only."

// ZeroShotScorer asks the LLM how strongly the query entails each intent label.
type ZeroShotScorer struct {
	llm JSONCompleter
}

func NewZeroShotScorer(llm JSONCompleter) *ZeroShotScorer {
	return &ZeroShotScorer{llm: llm}
}

func (z *ZeroShotScorer) Name() string { return "zero_shot" }

func (z *ZeroShotScorer) Score(ctx context.Context, text string) (Scores, error) {
	raw, err := z.llm.CompleteJSON(ctx, zeroShotSystem, zeroShotPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("zero-shot completion failed: %w", err)
	}
	return parseLabelScores(raw)
}

func zeroShotPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Rate how likely the query belongs to each label, as a probability between 0 and 1.\n\nLabels:\n")
	for _, in := range All {
		fmt.Fprintf(&b, "- %s: %s\n", in, in.Description())
	}
	b.WriteString("\nReturn a JSON object whose keys are exactly the labels above and whose values are numbers.\n\n")
	fmt.Fprintf(&b, "Query: %q", text)
	return b.String()
}

// parseLabelScores accepts a bare label object, one nested under "scores",
// or either wrapped in prose or a code fence.
func parseLabelScores(raw string) (Scores, error) {
	doc := ExtractJSON(raw)
	if !gjson.Valid(doc) {
		return nil, errors.New("zero-shot reply is not valid JSON")
	}
	result := gjson.Parse(doc)
	if nested := result.Get("scores"); nested.IsObject() {
		result = nested
	}

	out := make(Scores, len(All))
	for _, in := range All {
		if v := result.Get(string(in)); v.Exists() {
			out[in] = v.Float()
		}
	}
	norm := out.Normalize()
	if norm == nil {
		return nil, errors.New("zero-shot reply has no positive label scores")
	}
	return norm, nil
}

// ExtractJSON trims code fences and surrounding prose from an LLM reply.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(s)
	}
	return s[start : end+1]
}
