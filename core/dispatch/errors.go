package dispatch

import (
	"fmt"
	"strings"

	"github.com/routeup/routeup/core/model"
)

// RouteFailure identifies the first stage at which a route's upload stopped.
type RouteFailure struct {
	RouteTitle string
	Stage      model.Stage
	Detail     string
}

func (f RouteFailure) String() string {
	return fmt.Sprintf("%s: %s failed: %s", f.RouteTitle, f.Stage, f.Detail)
}

// StageFailuresError reports the routes whose upload did not complete. The
// run still produces a full outcome table; this error names the rows that
// need attention.
type StageFailuresError struct {
	Failures []RouteFailure
}

func (e *StageFailuresError) Error() string {
	if len(e.Failures) == 1 {
		return "upload incomplete: " + e.Failures[0].String()
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("upload incomplete for %d routes: %s", len(e.Failures), strings.Join(parts, "; "))
}

// PlanDeleteFailure identifies one plan the deletion flow could not remove.
type PlanDeleteFailure struct {
	PlanID string
	Detail string
}

// DeleteError reports plans that survived a deletion pass.
type DeleteError struct {
	Failed []PlanDeleteFailure
}

func (e *DeleteError) Error() string {
	if len(e.Failed) == 1 {
		f := e.Failed[0]
		return fmt.Sprintf("delete failed for %s: %s", f.PlanID, f.Detail)
	}
	ids := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		ids[i] = f.PlanID
	}
	return fmt.Sprintf("delete failed for %d plans: %s", len(e.Failed), strings.Join(ids, ", "))
}
