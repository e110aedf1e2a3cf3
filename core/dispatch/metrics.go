package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	stageLatency      *prometheus.HistogramVec
	stagesCompleted   *prometheus.CounterVec
	stagesFailed      *prometheus.CounterVec
	routesAbandoned   prometheus.Counter
	optimizationPolls prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "route_stage_latency_seconds",
			Help:    "Latency of one route passing through one lifecycle stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	done := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_stages_completed_total",
			Help: "Number of lifecycle stages completed successfully",
		},
		[]string{"stage"},
	)
	failed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_stages_failed_total",
			Help: "Number of lifecycle stages that failed or could not be confirmed",
		},
		[]string{"stage"},
	)
	abandoned := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routes_abandoned_total",
			Help: "Number of routes whose upload stopped before distribution",
		},
	)
	polls := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "optimization_polls_total",
			Help: "Number of optimization status checks issued",
		},
	)
	return lat, done, failed, abandoned, polls
}

func init() {
	stageLatency, stagesCompleted, stagesFailed, routesAbandoned, optimizationPolls = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers upload metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(stageLatency, stagesCompleted, stagesFailed, routesAbandoned, optimizationPolls)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	stageLatency, stagesCompleted, stagesFailed, routesAbandoned, optimizationPolls = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
