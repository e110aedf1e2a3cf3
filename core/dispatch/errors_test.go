package dispatch

import (
	"strings"
	"testing"

	"github.com/routeup/routeup/core/model"
)

func TestStageFailuresErrorMessage(t *testing.T) {
	one := &StageFailuresError{Failures: []RouteFailure{
		{RouteTitle: "Ana", Stage: model.StageOptimized, Detail: "operation canceled"},
	}}
	if got := one.Error(); got != "upload incomplete: Ana: optimized failed: operation canceled" {
		t.Errorf("single failure message = %q", got)
	}

	two := &StageFailuresError{Failures: []RouteFailure{
		{RouteTitle: "Ana", Stage: model.StageInitialized, Detail: "plan plans/p1 is not writable"},
		{RouteTitle: "Bob", Stage: model.StageDistributed, Detail: "plan plans/p2 was not distributed"},
	}}
	got := two.Error()
	if !strings.HasPrefix(got, "upload incomplete for 2 routes: ") {
		t.Errorf("multi failure prefix wrong: %q", got)
	}
	if !strings.Contains(got, "Ana: initialized failed") || !strings.Contains(got, "Bob: distributed failed") {
		t.Errorf("multi failure message = %q", got)
	}
}

func TestDeleteErrorMessage(t *testing.T) {
	one := &DeleteError{Failed: []PlanDeleteFailure{{PlanID: "plans/p1", Detail: "still distributed"}}}
	if got := one.Error(); got != "delete failed for plans/p1: still distributed" {
		t.Errorf("single failure message = %q", got)
	}

	many := &DeleteError{Failed: []PlanDeleteFailure{
		{PlanID: "plans/p1", Detail: "a"},
		{PlanID: "plans/p2", Detail: "b"},
	}}
	if got := many.Error(); got != "delete failed for 2 plans: plans/p1, plans/p2" {
		t.Errorf("multi failure message = %q", got)
	}
}
