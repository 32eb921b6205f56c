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
	ActiveConversations prometheus.Gauge
	IntakeSteps         *prometheus.CounterVec
	LogEntries          *prometheus.CounterVec
	StoreErrors         *prometheus.CounterVec
	GenerationErrors    prometheus.Counter
	GenerationLatency   prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveConversations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversations",
			Help:      "Number of conversations currently tracked by the intake engine.",
		}),
		IntakeSteps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_steps_total",
			Help:      "Intake step validations by step and outcome.",
		}, []string{"step", "outcome"}),
		LogEntries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_entries_total",
			Help:      "Conversation log entries written, by category.",
		}, []string{"category"}),
		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Durable store failures by operation.",
		}, []string{"op"}),
		GenerationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Failed or empty generation collaborator calls.",
		}),
		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_ms",
			Help:      "Generation collaborator round-trip latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		}),
	}
}

func (m *Metrics) ObserveGenerationLatency(d time.Duration) {
	m.GenerationLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
