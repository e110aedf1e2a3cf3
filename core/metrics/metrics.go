package metrics

import (
	"time"

	"github.com/routeup/routeup/core/model"
)

// StageResult represents one route finishing one lifecycle stage.
type StageResult struct {
	RunID      string
	RouteTitle string
	PlanID     string
	Stage      model.Stage
	OK         bool
	Unknown    bool
	Detail     string
	Duration   time.Duration
	Time       time.Time
}

// MetricsSink records stage results for observability purposes.
type MetricsSink interface {
	RecordStageResults(results []StageResult) error
}

// CallRetryEvent captures one API call being re-queued after a rate limit
// response or a transport failure.
type CallRetryEvent struct {
	Class  string
	Status int
	Wait   time.Duration
	Time   time.Time
}

// CallRetryRecorder is implemented by sinks able to record API retries.
type CallRetryRecorder interface {
	RecordCallRetry(ev CallRetryEvent) error
}

// RunEvent summarizes a finished upload run.
type RunEvent struct {
	RunID    string
	Routes   int
	Failed   int
	Duration time.Duration
	Time     time.Time
}

// RunRecorder is implemented by sinks able to record run summaries.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// PlanDeletedEvent records one plan removed through the deletion flow.
type PlanDeletedEvent struct {
	PlanID string
	OK     bool
	Time   time.Time
}

// PlanDeletionRecorder records plan deletions.
type PlanDeletionRecorder interface {
	RecordPlanDeleted(ev PlanDeletedEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStageResults([]StageResult) error { return nil }

func (NopSink) RecordCallRetry(CallRetryEvent) error     { return nil }
func (NopSink) RecordRun(RunEvent) error                 { return nil }
func (NopSink) RecordPlanDeleted(PlanDeletedEvent) error { return nil }
