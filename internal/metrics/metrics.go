// Package metrics centralizes the Prometheus instruments for grid
// evaluation runs. The convergence loop updates them as rounds progress,
// and both the -metrics-addr listener and the server's /metrics endpoint
// expose them through promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts completed grid runs by outcome.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mandelgrid_runs_total",
			Help: "The total number of grid evaluation runs by status",
		},
		[]string{"status"},
	)

	// RunDuration observes wall time per grid run.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mandelgrid_run_duration_seconds",
			Help:    "The duration of grid evaluation runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	// RoundsTotal counts convergence rounds across all runs.
	RoundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mandelgrid_rounds_total",
			Help: "The total number of convergence rounds executed",
		},
	)

	// RoundDuration observes wall time per convergence round.
	RoundDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mandelgrid_round_duration_seconds",
			Help:    "The duration of convergence rounds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 10),
		},
	)

	// RoundTasksTotal counts tasks submitted to the worker pool.
	RoundTasksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mandelgrid_round_tasks_total",
			Help: "The total number of point tasks submitted to the pool",
		},
	)

	// EscapedPointsTotal counts points that escaped across all runs.
	EscapedPointsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mandelgrid_escaped_points_total",
			Help: "The total number of points that crossed the escape radius",
		},
	)

	// WorkingSetSize reports the size of the current round's working set.
	WorkingSetSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mandelgrid_working_set_size",
			Help: "The number of undecided points in the active round",
		},
	)

	// TargetBudget reports the current cumulative iteration target.
	TargetBudget = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mandelgrid_target_budget",
			Help: "The cumulative iteration target of the active round",
		},
	)
)
