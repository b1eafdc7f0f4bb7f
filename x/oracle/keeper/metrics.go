package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OracleMetrics holds all Prometheus metrics for the oracle module
type OracleMetrics struct {
	// Submission metrics
	ObservationsSubmitted *prometheus.CounterVec
	SubmissionRejections  *prometheus.CounterVec

	// Round metrics
	RoundsClosed      *prometheus.CounterVec
	CurrentRound      prometheus.Gauge
	PublishedPrice    prometheus.Gauge
	ContributingCount prometheus.Gauge

	// Registry metrics
	ActiveOperators prometheus.Gauge
}

var (
	oracleMetricsOnce sync.Once
	oracleMetrics     *OracleMetrics
)

// NewOracleMetrics creates and registers oracle metrics (singleton pattern)
func NewOracleMetrics() *OracleMetrics {
	oracleMetricsOnce.Do(func() {
		oracleMetrics = &OracleMetrics{
			ObservationsSubmitted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "oracle",
					Name:      "observations_submitted_total",
					Help:      "Accepted observations, split by whether they replaced an earlier one",
				},
				[]string{"replaced"},
			),
			SubmissionRejections: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "oracle",
					Name:      "submission_rejections_total",
					Help:      "Rejected observations by reason",
				},
				[]string{"reason"},
			),
			RoundsClosed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paw",
					Subsystem: "oracle",
					Name:      "rounds_closed_total",
					Help:      "Closed rounds by close reason and publication outcome",
				},
				[]string{"reason", "published"},
			),
			CurrentRound: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "oracle",
					Name:      "current_round",
					Help:      "Id of the open round",
				},
			),
			PublishedPrice: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "oracle",
					Name:      "published_price",
					Help:      "Most recently published price",
				},
			),
			ContributingCount: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "oracle",
					Name:      "contributing_count",
					Help:      "Observations behind the most recently published price",
				},
			),
			ActiveOperators: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "paw",
					Subsystem: "oracle",
					Name:      "active_operators",
					Help:      "Registered operators, including those pending removal",
				},
			),
		}
	})
	return oracleMetrics
}
