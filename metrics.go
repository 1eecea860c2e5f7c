package userfetch

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes used as the "outcome" label value.
const (
	OutcomeSuccess        = "success"
	OutcomeAbsent         = "absent"
	OutcomeTransportError = "transport_error"
)

// Metrics holds the collectors updated by a Client. A nil *Metrics records nothing.
type Metrics struct {
	// requests counts fetches by outcome
	requests *prometheus.CounterVec

	// duration observes fetch latency by outcome
	duration *prometheus.HistogramVec
}

// NewMetrics creates the fetch collectors and registers them with reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userfetch_requests_total",
				Help: "Total user fetches by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "userfetch_request_duration_seconds",
				Help:    "User fetch duration in seconds by outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register userfetch metrics: %w", err)
		}
	}
	return m, nil
}

// observe records one fetch.
func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
