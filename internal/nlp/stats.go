package nlp

import (
	"math"

	"github.com/kisanmitra/agri-advisor/internal/nlp/intent"
)

type TimingStats struct {
	AverageMS float64 `json:"average_ms"`
	MinMS     float64 `json:"min_ms"`
	MaxMS     float64 `json:"max_ms"`
}

type Statistics struct {
	TotalQueries            int                    `json:"total_queries"`
	LanguageDistribution    map[Language]int       `json:"language_distribution"`
	CodeMixedCount          int                    `json:"code_mixed_count"`
	IntentDistribution      map[intent.Intent]int  `json:"intent_distribution"`
	AverageConfidence       float64                `json:"average_confidence"`
	LowConfidenceCount      int                    `json:"low_confidence_count"`
	TotalEntities           int                    `json:"total_entities"`
	AverageEntitiesPerQuery float64                `json:"average_entities_per_query"`
	EntitiesByCategory      map[EntityCategory]int `json:"entities_by_category"`
	DegradedStages          map[string]int         `json:"degraded_stages,omitempty"`
	ProcessingTime          TimingStats            `json:"processing_time"`
}

// ComputeStatistics summarises a set of results. It reads the results only.
func ComputeStatistics(results []*Result) Statistics {
	stats := Statistics{
		LanguageDistribution: make(map[Language]int),
		IntentDistribution:   make(map[intent.Intent]int),
		EntitiesByCategory:   make(map[EntityCategory]int),
		DegradedStages:       make(map[string]int),
	}
	if len(results) == 0 {
		return stats
	}

	var confidenceSum, timeSum float64
	minTime, maxTime := math.Inf(1), 0.0
	for _, r := range results {
		if r == nil {
			continue
		}
		stats.TotalQueries++
		stats.LanguageDistribution[r.PrimaryLanguage]++
		if r.IsCodeMixed {
			stats.CodeMixedCount++
		}
		stats.IntentDistribution[r.PrimaryIntent]++
		confidenceSum += r.IntentConfidence
		if r.LowConfidence {
			stats.LowConfidenceCount++
		}
		for cat, surfaces := range r.Entities {
			stats.EntitiesByCategory[cat] += len(surfaces)
			stats.TotalEntities += len(surfaces)
		}
		for _, d := range r.Degraded {
			stats.DegradedStages[d]++
		}
		timeSum += r.ProcessingTimeMS
		minTime = math.Min(minTime, r.ProcessingTimeMS)
		maxTime = math.Max(maxTime, r.ProcessingTimeMS)
	}
	if stats.TotalQueries == 0 {
		return stats
	}

	n := float64(stats.TotalQueries)
	stats.AverageConfidence = confidenceSum / n
	stats.AverageEntitiesPerQuery = float64(stats.TotalEntities) / n
	stats.ProcessingTime = TimingStats{AverageMS: timeSum / n, MinMS: minTime, MaxMS: maxTime}
	return stats
}
