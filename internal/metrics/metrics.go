package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agri_queries_processed_total",
			Help: "Total number of queries run through the understanding pipeline",
		},
		[]string{"intent", "language"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agri_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"stage"},
	)

	ScorerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agri_intent_scorer_failures_total",
			Help: "Number of times an intent scorer was skipped because it failed",
		},
		[]string{"scorer"},
	)

	ResponderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agri_responder_requests_total",
			Help: "Advisor responder invocations by outcome",
		},
		[]string{"responder", "outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agri_http_request_duration_seconds",
			Help: "HTTP request latency by route",
		},
		[]string{"route", "status"},
	)
)
