package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveBuffers     prometheus.Gauge
	BufferOps         *prometheus.CounterVec
	FlushOutcomes     *prometheus.CounterVec
	RetrievedSnippets *prometheus.CounterVec
	GenerationPath    *prometheus.CounterVec
	DependencyErrors  *prometheus.CounterVec
	TurnLatency       prometheus.Histogram

	// Turns is a rolling window of recent turn timings for the debug
	// endpoint; it is not registered with Prometheus.
	Turns *TurnWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Turns: NewTurnWindow(256),
		ActiveBuffers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_session_buffers",
			Help:      "Number of session buffers with pending turns.",
		}),
		BufferOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_ops_total",
			Help:      "Session buffer operations by op and result.",
		}, []string{"op", "result"}),
		FlushOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_outcomes_total",
			Help:      "Summarizer flush outcomes by trigger and result.",
		}, []string{"trigger", "result"}),
		RetrievedSnippets: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieved_snippets_total",
			Help:      "Semantic snippets surviving the score filter, by namespace.",
		}, []string{"namespace"}),
		GenerationPath: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_path_total",
			Help:      "Assistant replies by generation path (model or fallback).",
		}, []string{"path"}),
		DependencyErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dependency_errors_total",
			Help:      "Swallowed dependency errors by component.",
		}, []string{"component"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end latency of one assistant turn in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000},
		}),
	}
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.TurnLatency.Observe(float64(d.Milliseconds()))
	m.Turns.Observe(PhaseTurnTotal, d)
}

func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.Turns.Observe(phase, d)
}

func (m *Metrics) TurnSnapshot() TurnSnapshot {
	if m == nil {
		return (*TurnWindow)(nil).Snapshot()
	}
	return m.Turns.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
