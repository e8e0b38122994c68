package intent

import (
	"context"
	"sort"
	"strings"

	"github.com/kisanmitra/agri-advisor/internal/logger"
	"github.com/kisanmitra/agri-advisor/internal/metrics"
)

// Options tune the ensemble. Weights are keyed by scorer name.
type Options struct {
	Weights       map[string]float64
	Adaptive      bool
	WinnerBoost   float64
	LowConfidence float64
}

func DefaultOptions() Options {
	return Options{
		Weights: map[string]float64{
			"rule":      0.35,
			"ml":        0.25,
			"semantic":  0.20,
			"zero_shot": 0.20,
		},
		Adaptive:      true,
		WinnerBoost:   1.2,
		LowConfidence: 0.4,
	}
}

type Classification struct {
	Scores          Scores            `json:"scores"`
	PrimaryIntent   Intent            `json:"primary_intent"`
	Confidence      float64           `json:"confidence"`
	ConfidenceLevel string            `json:"confidence_level"`
	LowConfidence   bool              `json:"low_confidence"`
	ScorersUsed     []string          `json:"scorers_used"`
	Skipped         []string          `json:"skipped,omitempty"`
	ScorerScores    map[string]Scores `json:"scorer_scores,omitempty"`
}

// Classifier combines scorers into one distribution over intents.
type Classifier struct {
	scorers []Scorer
	opts    Options
	log     logger.Logger
}

func New(opts Options, log logger.Logger, scorers ...Scorer) *Classifier {
	if opts.WinnerBoost < 1 {
		opts.WinnerBoost = 1
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Classifier{scorers: scorers, opts: opts, log: log}
}

// NewSimple is the keyword-only classifier.
func NewSimple(baseline, lowConfidence float64) *Classifier {
	return New(Options{
		Weights:       map[string]float64{"rule": 1},
		WinnerBoost:   1,
		LowConfidence: lowConfidence,
	}, nil, NewKeywordScorer(baseline))
}

// ScorerNames lists the attached scorers in evaluation order.
func (c *Classifier) ScorerNames() []string {
	names := make([]string, len(c.scorers))
	for i, s := range c.scorers {
		names[i] = s.Name()
	}
	return names
}

// Classify never fails: scorers that error or see nothing are skipped and the
// remaining weights renormalized. Blank input yields a low-confidence general_inquiry.
func (c *Classifier) Classify(ctx context.Context, text string) Classification {
	if strings.TrimSpace(text) == "" {
		return c.finish(lowConfidenceDefault(), nil, nil, nil)
	}

	type contribution struct {
		name   string
		scores Scores
		weight float64
	}
	var used []contribution
	var skipped []string
	perScorer := make(map[string]Scores)

	for _, s := range c.scorers {
		w := c.opts.Weights[s.Name()]
		if w <= 0 {
			continue
		}
		scores, err := s.Score(ctx, text)
		if err != nil {
			metrics.ScorerFailures.WithLabelValues(s.Name()).Inc()
			c.log.Warn("intent scorer skipped", map[string]interface{}{
				"scorer": s.Name(),
				"error":  err.Error(),
			})
			skipped = append(skipped, s.Name())
			continue
		}
		scores = scores.Normalize()
		if scores == nil {
			continue
		}
		if c.opts.Adaptive {
			w *= 0.5 + scores.Margin()
		}
		perScorer[s.Name()] = scores
		used = append(used, contribution{name: s.Name(), scores: scores, weight: w})
	}

	if len(used) == 0 {
		return c.finish(lowConfidenceDefault(), nil, skipped, perScorer)
	}

	var totalWeight float64
	for _, u := range used {
		totalWeight += u.weight
	}
	combined := make(Scores, len(All))
	names := make([]string, 0, len(used))
	for _, u := range used {
		for _, in := range All {
			combined[in] += (u.weight / totalWeight) * u.scores[in]
		}
		names = append(names, u.name)
	}

	top, _ := combined.Top()
	combined[top] *= c.opts.WinnerBoost
	combined = combined.Normalize()
	if combined == nil {
		combined = lowConfidenceDefault()
	}
	return c.finish(combined, names, skipped, perScorer)
}

func (c *Classifier) finish(scores Scores, used, skipped []string, perScorer map[string]Scores) Classification {
	primary, confidence := scores.Top()
	sort.Strings(skipped)
	if len(perScorer) == 0 {
		perScorer = nil
	}
	if used == nil {
		used = []string{}
	}
	return Classification{
		Scores:          scores,
		PrimaryIntent:   primary,
		Confidence:      confidence,
		ConfidenceLevel: ConfidenceLevel(confidence),
		LowConfidence:   confidence < c.opts.LowConfidence,
		ScorersUsed:     used,
		Skipped:         skipped,
		ScorerScores:    perScorer,
	}
}
