package events

import (
	"time"

	"github.com/routeup/routeup/core/model"
)

// StageEvent is published when a route finishes one lifecycle stage.
// Unknown is set for an optimization whose launch succeeded but whose
// outcome could not be confirmed.
type StageEvent struct {
	RunID      string
	RouteTitle string
	PlanID     string
	Stage      model.Stage
	OK         bool
	Unknown    bool
	Detail     string
	Duration   time.Duration
}
