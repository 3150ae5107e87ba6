package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askaws",
			Name:      "questions_total",
			Help:      "Total number of questions processed",
		},
		[]string{"type", "complexity", "status"},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askaws",
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end question processing duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"type"},
	)

	DocsRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askaws",
			Name:      "docs_requests_total",
			Help:      "Total number of documentation backend requests",
		},
		[]string{"topic", "status"},
	)

	DocsRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askaws",
			Name:      "docs_request_duration_seconds",
			Help:      "Documentation backend request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"topic"},
	)

	DocsRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askaws",
			Name:      "docs_retries_total",
			Help:      "Total number of documentation backend retry attempts",
		},
		[]string{"topic"},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askaws",
			Name:      "search_cache_total",
			Help:      "Search result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	AnswersWithoutSources = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "askaws",
			Name:      "answers_without_sources_total",
			Help:      "Total answers produced with zero documentation sources",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(QuestionsTotal)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(DocsRequestsTotal)
	prometheus.MustRegister(DocsRequestDuration)
	prometheus.MustRegister(DocsRetriesTotal)
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(AnswersWithoutSources)
	pipelineMetricsRegistered = true
}
