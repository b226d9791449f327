// Package metrics holds the Prometheus collectors shared by the binaries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SnapshotsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ytanalytics_snapshots_appended_total",
			Help: "Total number of snapshots appended by refresh cycles",
		},
	)

	RefreshFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytanalytics_refresh_failures_total",
			Help: "Videos skipped during a refresh cycle, by failing stage",
		},
		[]string{"stage"}, // "fetch", "append"
	)

	RefreshCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytanalytics_refresh_cycle_duration_seconds",
			Help:    "Duration of a full refresh cycle in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	RefreshLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytanalytics_refresh_last_completed_timestamp_seconds",
			Help: "Unix time at which the last refresh cycle completed",
		},
	)

	// 0 = closed, 1 = half-open, 2 = open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ytanalytics_circuit_breaker_state",
			Help: "Current circuit breaker state",
		},
		[]string{"name"},
	)
)
