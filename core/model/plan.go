package model

import "time"

// Stage identifies one step of the per-route upload lifecycle.
type Stage int

const (
	StageInitialized Stage = iota
	StageStopsUploaded
	StageOptimized
	StageDistributed
)

// Stages lists the lifecycle stages in execution order.
var Stages = []Stage{StageInitialized, StageStopsUploaded, StageOptimized, StageDistributed}

// String returns the column name of the stage in the outcome table.
func (s Stage) String() string {
	switch s {
	case StageInitialized:
		return "initialized"
	case StageStopsUploaded:
		return "stops_uploaded"
	case StageOptimized:
		return "optimized"
	case StageDistributed:
		return "distributed"
	default:
		return "unknown"
	}
}

// PlanRecord is the per-route audit row produced by an upload run. Stage
// fields are write-once-forward: once a stage fails, the failed stage and
// every later stage are recorded false and the row is abandoned. The one
// exception is optimization confirmation failing after a successful launch,
// which leaves Optimized nil, attempted but unconfirmed.
type PlanRecord struct {
	RouteTitle string    `json:"route_title"`
	Driver     Driver    `json:"driver"`
	PlanID     string    `json:"plan_id,omitempty"`
	Writable   bool      `json:"writable"`
	StartDate  time.Time `json:"start_date"`

	Initialized   *bool `json:"initialized"`
	StopsUploaded *bool `json:"stops_uploaded"`
	Optimized     *bool `json:"optimized"`
	Distributed   *bool `json:"distributed"`

	// Failure holds the detail of the first failed stage, empty for clean rows.
	Failure string `json:"failure,omitempty"`
}

func (r *PlanRecord) stage(s Stage) **bool {
	switch s {
	case StageInitialized:
		return &r.Initialized
	case StageStopsUploaded:
		return &r.StopsUploaded
	case StageOptimized:
		return &r.Optimized
	default:
		return &r.Distributed
	}
}

// MarkDone records a successful stage.
func (r *PlanRecord) MarkDone(s Stage) {
	v := true
	*r.stage(s) = &v
}

// MarkFailed records a failed stage and cascades false to every later stage.
// The first failure detail is kept.
func (r *PlanRecord) MarkFailed(s Stage, detail string) {
	for _, st := range Stages {
		if st >= s {
			v := false
			*r.stage(st) = &v
		}
	}
	if r.Failure == "" {
		r.Failure = detail
	}
}

// MarkUnknown records optimization as attempted but unconfirmed: the launch
// succeeded yet the outcome could not be established. Optimized stays nil
// and distribution is recorded false.
func (r *PlanRecord) MarkUnknown(detail string) {
	r.Optimized = nil
	v := false
	r.Distributed = &v
	if r.Failure == "" {
		r.Failure = detail
	}
}

// Done reports whether the stage completed successfully.
func (r *PlanRecord) Done(s Stage) bool {
	p := *r.stage(s)
	return p != nil && *p
}

// StageValue returns the recorded outcome of the stage, nil when the stage
// was never confirmed.
func (r *PlanRecord) StageValue(s Stage) *bool {
	return *r.stage(s)
}

// Abandoned reports whether some stage failed for this route.
func (r *PlanRecord) Abandoned() bool {
	return r.Failure != ""
}
