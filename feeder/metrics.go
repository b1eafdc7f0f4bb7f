package feeder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FeederMetrics holds the Prometheus metrics of the reporting agent.
type FeederMetrics struct {
	// Source metrics
	SourcePrice    *prometheus.GaugeVec
	SourceFailures *prometheus.CounterVec

	// Submission metrics
	Submissions      *prometheus.CounterVec
	SubmittedPrice   prometheus.Gauge
	LastHandledBlock prometheus.Gauge
	CurrentRound     prometheus.Gauge
}

// NewFeederMetrics creates the agent metrics and registers them with reg.
func NewFeederMetrics(reg prometheus.Registerer) *FeederMetrics {
	factory := promauto.With(reg)

	return &FeederMetrics{
		SourcePrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "paw",
				Subsystem: "oracle_feeder",
				Name:      "source_price",
				Help:      "Last price reported by each source",
			},
			[]string{"source"},
		),
		SourceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paw",
				Subsystem: "oracle_feeder",
				Name:      "source_failures_total",
				Help:      "Failed price fetches by source",
			},
			[]string{"source"},
		),
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paw",
				Subsystem: "oracle_feeder",
				Name:      "submissions_total",
				Help:      "Observation submissions by outcome",
			},
			[]string{"outcome"},
		),
		SubmittedPrice: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "paw",
				Subsystem: "oracle_feeder",
				Name:      "submitted_price",
				Help:      "Value of the last accepted observation",
			},
		),
		LastHandledBlock: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "paw",
				Subsystem: "oracle_feeder",
				Name:      "last_handled_block",
				Help:      "Height of the last block the agent handled",
			},
		),
		CurrentRound: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "paw",
				Subsystem: "oracle_feeder",
				Name:      "current_round",
				Help:      "Open oracle round seen by the agent",
			},
		),
	}
}
