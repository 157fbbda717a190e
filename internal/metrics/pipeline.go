package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generation, guardrail and pipeline Prometheus metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_request_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"provider", "model"},
	)

	GuardrailVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guardrail_verdicts_total",
			Help:      "Guardrail checks by direction and verdict",
		},
		[]string{"direction", "verdict"}, // verdict: "pass" / "blocked" / "error"
	)

	IngestItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_items_total",
			Help:      "Ingested objects by outcome",
		},
		[]string{"status", "step"},
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_chunks_total",
			Help:      "Chunks written inside committed or pending ingestion transactions",
		},
	)

	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat requests by outcome",
		},
		[]string{"outcome"}, // answered, blocked_input, blocked_output, invalid, error
	)
)

var registered bool

// Register registers all ragd domain metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingErrorsTotal,
		EmbeddingCacheTotal,
		EmbeddingRateLimitWait,
		GenerationRequestsTotal,
		GenerationRequestDuration,
		GuardrailVerdictsTotal,
		IngestItemsTotal,
		IngestChunksTotal,
		ChatTurnsTotal,
		httpRequestDuration,
		httpRequestsTotal,
		httpInFlight,
	)
	registered = true
}
