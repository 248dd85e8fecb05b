package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics: LLM calls, retrieval, embeddings, feedback.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimsdesk",
			Name:      "llm_requests_total",
			Help:      "Total number of chat-completion requests",
		},
		[]string{"backend", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "claimsdesk",
			Name:      "llm_request_duration_seconds",
			Help:      "Chat-completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"backend", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimsdesk",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"backend", "model", "type"}, // type: prompt / completion
	)

	LLMCostDollarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimsdesk",
			Name:      "llm_cost_dollars_total",
			Help:      "Estimated hosted-LLM spend in dollars",
		},
		[]string{"model"},
	)

	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimsdesk",
			Name:      "retrieval_requests_total",
			Help:      "Total FAQ retrieval requests",
		},
		[]string{"strategy", "status"}, // status: success / degraded
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimsdesk",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "claimsdesk",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claimsdesk",
			Name:      "feedback_total",
			Help:      "User feedback events by kind",
		},
		[]string{"kind"}, // thumbs_up / thumbs_down / relevant / partly_relevant / non_relevant
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(LLMCostDollarsTotal)
	prometheus.MustRegister(RetrievalRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(FeedbackTotal)
	pipelineMetricsRegistered = true
}
