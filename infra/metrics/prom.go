package metrics

import (
	"strconv"

	coremetrics "github.com/routeup/routeup/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records upload events in Prometheus metrics.
type PromSink struct {
	stages    *prometheus.CounterVec
	durations *prometheus.HistogramVec
	retries   *prometheus.CounterVec
	runs      *prometheus.CounterVec
	deletions *prometheus.CounterVec
}

// NewPromSink registers upload metrics on the default Prometheus registerer.
// The exposition server is started separately using cfg.PrometheusPort.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	stages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_stage_results_total",
		Help: "Total number of per-route stage results",
	}, []string{"stage", "result"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upload_stage_duration_seconds",
		Help:    "Time spent driving one route through one stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_call_retries_total",
		Help: "Total number of remote calls re-queued after a backoff",
	}, []string{"class", "status"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_runs_total",
		Help: "Total number of finished upload runs",
	}, []string{"result"})
	deletions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plans_deleted_total",
		Help: "Total number of plan deletions attempted",
	}, []string{"result"})

	if err := reg.Register(stages); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			stages = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(durations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			durations = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(retries); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			retries = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(deletions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			deletions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{stages: stages, durations: durations, retries: retries, runs: runs, deletions: deletions}, nil
}

// RecordStageResults increments the counter for each stage result and observes
// its duration.
func (s *PromSink) RecordStageResults(res []coremetrics.StageResult) error {
	for _, r := range res {
		s.stages.WithLabelValues(r.Stage.String(), resultLabel(r.OK, r.Unknown)).Inc()
		if r.Duration > 0 {
			s.durations.WithLabelValues(r.Stage.String()).Observe(r.Duration.Seconds())
		}
	}
	return nil
}

// RecordCallRetry counts a remote call being re-queued.
func (s *PromSink) RecordCallRetry(ev coremetrics.CallRetryEvent) error {
	s.retries.WithLabelValues(ev.Class, strconv.Itoa(ev.Status)).Inc()
	return nil
}

// RecordRun counts a finished run.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	result := "ok"
	if ev.Failed > 0 {
		result = "failed"
	}
	s.runs.WithLabelValues(result).Inc()
	return nil
}

// RecordPlanDeleted counts a plan deletion attempt.
func (s *PromSink) RecordPlanDeleted(ev coremetrics.PlanDeletedEvent) error {
	result := "ok"
	if !ev.OK {
		result = "failed"
	}
	s.deletions.WithLabelValues(result).Inc()
	return nil
}

func resultLabel(ok, unknown bool) string {
	switch {
	case unknown:
		return "unknown"
	case ok:
		return "ok"
	default:
		return "failed"
	}
}
