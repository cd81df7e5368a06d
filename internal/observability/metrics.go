package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the loop.
type Metrics struct {
	SessionActive   prometheus.Gauge
	TurnsTotal      *prometheus.CounterVec
	StageLatency    *prometheus.HistogramVec
	EmotionResolved *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SessionActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "Whether a voice session is currently active.",
		}),
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed loop cycles by outcome.",
		}, []string{"outcome"}),
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_ms",
			Help:      "Per-stage latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 16000},
		}, []string{"stage"}),
		EmotionResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emotion_resolved_total",
			Help:      "Resolved synthesis voices by speaker id.",
		}, []string{"voice"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Collaborator errors by stage.",
		}, []string{"stage"}),
	}
}

// ObserveStage records a stage latency sample.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageLatency.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}

// CountVoice records which speaker rendered a turn.
func (m *Metrics) CountVoice(voice int) {
	m.EmotionResolved.WithLabelValues(strconv.Itoa(voice)).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
