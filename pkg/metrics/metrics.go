package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics for the monitoring engine
type Metrics struct {
	ReservationsChecked prometheus.Counter
	ChangesDetected     *prometheus.CounterVec
	CheckErrors         *prometheus.CounterVec
	CycleDuration       prometheus.Histogram
	CyclesRun           prometheus.Counter
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ReservationsChecked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_checked_total",
			Help:      "The total number of reservation checks performed",
		}),
		ChangesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_detected_total",
			Help:      "The total number of drift events detected",
		}, []string{"field", "severity"}),
		CheckErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_errors_total",
			Help:      "The total number of failed reservation checks",
		}, []string{"kind"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of monitoring cycles",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		CyclesRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_run_total",
			Help:      "The total number of monitoring cycles executed",
		}),
	}
}
