package nlp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kisanmitra/agri-advisor/internal/logger"
	"github.com/kisanmitra/agri-advisor/internal/metrics"
	"github.com/kisanmitra/agri-advisor/internal/nlp/intent"
)

// Result is the structured understanding of one query. It is not modified after Process returns.
type Result struct {
	ID               string                      `json:"id"`
	Query            string                      `json:"query"`
	Language         map[Language]float64        `json:"language"`
	PrimaryLanguage  Language                    `json:"primary_language"`
	IsCodeMixed      bool                        `json:"is_code_mixed"`
	NormalizedText   string                      `json:"normalized_text"`
	Intents          intent.Scores               `json:"intents"`
	PrimaryIntent    intent.Intent               `json:"primary_intent"`
	IntentConfidence float64                     `json:"intent_confidence"`
	ConfidenceLevel  string                      `json:"confidence_level"`
	LowConfidence    bool                        `json:"low_confidence"`
	ScorersUsed      []string                    `json:"scorers_used"`
	Entities         map[EntityCategory][]string `json:"entities"`
	EntityDetails    []Entity                    `json:"entity_details"`
	Degraded         []string                    `json:"degraded,omitempty"`
	ProcessingTimeMS float64                     `json:"processing_time_ms"`
	ProcessedAt      time.Time                   `json:"processed_at"`
}

// EntityResult rebuilds the extractor view of the result.
func (r *Result) EntityResult() EntityResult {
	return EntityResult{Entities: r.Entities, Details: r.EntityDetails}
}

// Pipeline runs detect, normalize, classify and extract in a fixed order.
type Pipeline struct {
	detector   *LanguageDetector
	normalizer *Normalizer
	classifier *intent.Classifier
	extractor  *EntityExtractor
	log        logger.Logger
}

func NewPipeline(d *LanguageDetector, n *Normalizer, c *intent.Classifier, e *EntityExtractor, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Pipeline{detector: d, normalizer: n, classifier: c, extractor: e, log: log}
}

func (p *Pipeline) DetectLanguage(text string) LanguageResult {
	defer observe("language", time.Now())
	return p.detector.Detect(text)
}

func (p *Pipeline) Normalize(text string) string {
	defer observe("normalize", time.Now())
	return p.normalizer.Normalize(text)
}

// ClassifyIntent normalizes first, as Process does.
func (p *Pipeline) ClassifyIntent(ctx context.Context, text string) intent.Classification {
	return p.classify(ctx, p.Normalize(text))
}

// ExtractEntities normalizes first, as Process does.
func (p *Pipeline) ExtractEntities(text string) EntityResult {
	return p.extract(p.Normalize(text))
}

func (p *Pipeline) classify(ctx context.Context, normalized string) intent.Classification {
	defer observe("intent", time.Now())
	return p.classifier.Classify(ctx, normalized)
}

func (p *Pipeline) extract(normalized string) EntityResult {
	defer observe("entities", time.Now())
	return p.extractor.Extract(normalized)
}

// Process never fails; stages that ran without an optional dependency are listed in Degraded.
func (p *Pipeline) Process(ctx context.Context, text string) *Result {
	start := time.Now()

	lang := p.DetectLanguage(text)
	normalized := p.Normalize(text)
	cls := p.classify(ctx, normalized)
	ents := p.extract(normalized)

	var degraded []string
	if lang.ModelFailed {
		degraded = append(degraded, "language:model")
	}
	for _, name := range cls.Skipped {
		degraded = append(degraded, "intent:"+name)
	}

	res := &Result{
		ID:               uuid.NewString(),
		Query:            text,
		Language:         lang.Scores,
		PrimaryLanguage:  lang.PrimaryLanguage,
		IsCodeMixed:      lang.IsCodeMixed,
		NormalizedText:   normalized,
		Intents:          cls.Scores,
		PrimaryIntent:    cls.PrimaryIntent,
		IntentConfidence: cls.Confidence,
		ConfidenceLevel:  cls.ConfidenceLevel,
		LowConfidence:    cls.LowConfidence,
		ScorersUsed:      cls.ScorersUsed,
		Entities:         ents.Entities,
		EntityDetails:    ents.Details,
		Degraded:         degraded,
		ProcessingTimeMS: float64(time.Since(start).Microseconds()) / 1000,
		ProcessedAt:      time.Now().UTC(),
	}

	metrics.QueriesProcessed.WithLabelValues(string(res.PrimaryIntent), string(res.PrimaryLanguage)).Inc()
	p.log.Debug("query processed", map[string]interface{}{
		"id":         res.ID,
		"intent":     res.PrimaryIntent,
		"confidence": res.IntentConfidence,
		"language":   res.PrimaryLanguage,
		"entities":   len(res.EntityDetails),
	})
	return res
}

// ProcessBatch handles texts one after another and keeps input order.
func (p *Pipeline) ProcessBatch(ctx context.Context, texts []string) []*Result {
	out := make([]*Result, len(texts))
	for i, text := range texts {
		out[i] = p.Process(ctx, text)
	}
	return out
}

// Classifier exposes the intent classifier for side-by-side comparisons.
func (p *Pipeline) Classifier() *intent.Classifier { return p.classifier }

func observe(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
