package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuchat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docuchat_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Document processing metrics
	DocumentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuchat_documents_processed_total",
			Help: "Total number of documents processed, by format",
		},
		[]string{"format", "status"},
	)

	StoredDocuments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docuchat_stored_documents",
			Help: "Number of entries (documents and chunks) in the in-memory store",
		},
	)

	AnalysisStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuchat_analysis_step_failures_total",
			Help: "Total number of spreadsheet analysis steps that failed and were skipped",
		},
		[]string{"step"},
	)

	// Chat metrics
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuchat_queries_processed_total",
			Help: "Total number of chat queries processed",
		},
		[]string{"status"},
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docuchat_query_duration_seconds",
			Help:    "Duration of chat query processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ContextSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docuchat_context_size_chars",
			Help:    "Size in characters of the context sent to the completion API",
			Buckets: prometheus.ExponentialBuckets(100, 4, 8),
		},
	)

	// OpenAI metrics
	OpenAIAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuchat_openai_api_calls_total",
			Help: "Total number of OpenAI API calls",
		},
		[]string{"status"},
	)

	OpenAIAPICallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docuchat_openai_api_call_duration_seconds",
			Help:    "Duration of OpenAI API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
