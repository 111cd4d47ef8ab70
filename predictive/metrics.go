package predictive

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts sampler activity. Collectors are only exported when a registerer is
// supplied.
type Metrics struct {
	samples    *prometheus.CounterVec
	rejections *prometheus.CounterVec
	attempts   prometheus.Histogram
	failures   *prometheus.CounterVec
}

// NewMetrics creates the sampler collectors on reg. A nil registerer keeps the
// collectors private.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		samples: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "survival_predictive_samples_total",
			Help: "Total accepted predictive survival time samples by method",
		}, []string{"method"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "survival_predictive_rejections_total",
			Help: "Total candidates rejected for exceeding the horizon by method",
		}, []string{"method"}),
		attempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "survival_predictive_attempts",
			Help:    "Number of candidates drawn per accepted truncated sample",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "survival_predictive_failures_total",
			Help: "Total samples that could not be drawn by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) observe(method Method, attempts int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.failures.WithLabelValues(failureReason(err)).Inc()
		if attempts > 0 {
			m.rejections.WithLabelValues(string(method)).Add(float64(attempts))
		}
		return
	}
	m.samples.WithLabelValues(string(method)).Inc()
	if method == MethodTruncated {
		m.attempts.Observe(float64(attempts))
		if attempts > 1 {
			m.rejections.WithLabelValues(string(method)).Add(float64(attempts - 1))
		}
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrDegenerateRate):
		return "degenerate_rate"
	case errors.Is(err, ErrInvalidHorizon):
		return "invalid_horizon"
	case errors.Is(err, ErrAcceptanceUnderflow):
		return "acceptance_underflow"
	case errors.Is(err, ErrMaxAttemptsExceeded):
		return "max_attempts"
	default:
		return "other"
	}
}
