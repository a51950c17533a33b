package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records provider attempts, fallbacks and submissions.
type PipelineMetrics struct {
	attempts    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	fallbacks   *prometheus.CounterVec
	submissions *prometheus.CounterVec
}

func NewPipelineMetrics(reg prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insightboard_provider_attempts_total",
			Help: "LLM provider attempts by outcome.",
		}, []string{"provider", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "insightboard_provider_duration_seconds",
			Help:    "Latency of LLM provider attempts.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insightboard_fallback_total",
			Help: "Requests answered by the heuristic analyzer.",
		}, []string{"operation"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insightboard_transcripts_submitted_total",
			Help: "Transcripts accepted for analysis.",
		}, []string{"mode"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.attempts, m.duration, m.fallbacks, m.submissions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PipelineMetrics) ProviderAttempt(provider string, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *PipelineMetrics) Fallback(operation string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(operation).Inc()
}

// TranscriptSubmitted counts a submission; mode is "sync" or "async".
func (m *PipelineMetrics) TranscriptSubmitted(mode string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(mode).Inc()
}
