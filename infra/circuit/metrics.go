package circuit

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal    *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
	transportRetries *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.HistogramVec) {
	req := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_api_requests_total",
			Help: "Completed API round trips by class, method and status",
		},
		[]string{"class", "method", "status"},
	)
	rate := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_api_rate_limited_total",
			Help: "429 responses per call class",
		},
		[]string{"class"},
	)
	trans := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_api_transport_retries_total",
			Help: "Transport failures retried per call class",
		},
		[]string{"class"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "circuit_api_request_duration_seconds",
			Help:    "Round trip duration per call class",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"class"},
	)
	return req, rate, trans, dur
}

func init() {
	requestsTotal, rateLimited, transportRetries, requestDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers API client metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(requestsTotal, rateLimited, transportRetries, requestDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	requestsTotal, rateLimited, transportRetries, requestDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
