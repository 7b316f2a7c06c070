package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matkb",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "matkb",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matkb",
			Name:      "generation_requests_total",
			Help:      "Total number of chat generation requests",
		},
		[]string{"model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "matkb",
			Name:      "generation_request_duration_seconds",
			Help:      "Chat generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"model"},
	)

	// RetrievalDesyncTotal counts vector-index hits whose chunk id had no
	// matching store row. The hit is dropped silently; this counter is the
	// only signal that the index and the store have drifted apart.
	RetrievalDesyncTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "matkb",
			Name:      "retrieval_desync_total",
			Help:      "Vector index hits dropped for lack of a chunk store row",
		},
	)

	SummariesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matkb",
			Name:      "summaries_total",
			Help:      "Summarization results by kind",
		},
		[]string{"kind"}, // "full" / "digest" / "failed"
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matkb",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matkb",
			Name:      "queries_total",
			Help:      "Knowledgebase queries by mode and status code",
		},
		[]string{"mode", "code"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(RetrievalDesyncTotal)
	prometheus.MustRegister(SummariesTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(QueriesTotal)
	pipelineMetricsRegistered = true
}
