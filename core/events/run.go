package events

import "time"

// RunStarted is published once per upload run before any remote call.
type RunStarted struct {
	RunID  string
	Routes []string
}

// RunFinished is published after every route has been driven as far as it
// can go.
type RunFinished struct {
	RunID    string
	Routes   int
	Failed   int
	Duration time.Duration
}

// PlanDeleted is published when the deletion flow removes a plan, or fails to.
type PlanDeleted struct {
	PlanID string
	OK     bool
}
