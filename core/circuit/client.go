package circuit

import (
	"context"

	"github.com/routeup/routeup/core/model"
)

// Client is the remote routing service boundary. The HTTP implementation
// lives in infra/circuit; tests substitute fakes.
type Client interface {
	// CreatePlan registers an empty plan for a route and returns it with its
	// id and writable flag.
	CreatePlan(ctx context.Context, spec PlanSpec) (Plan, error)

	// ImportStops uploads one batch of stops to a plan. Callers judge the
	// batch by the returned success and failed lists.
	ImportStops(ctx context.Context, planID string, stops []StopInput) (ImportResult, error)

	// StartOptimization launches route optimization for a plan.
	StartOptimization(ctx context.Context, planID string) (Operation, error)

	// CheckOptimization polls a launched optimization by operation id.
	CheckOptimization(ctx context.Context, operationID string) (Operation, error)

	// DistributePlan pushes the optimized plan to the driver's device and
	// reports whether the service confirmed distribution.
	DistributePlan(ctx context.Context, planID string) (bool, error)

	// DeletePlan removes a plan.
	DeletePlan(ctx context.Context, planID string) error

	// ListDrivers fetches all drivers across pages.
	ListDrivers(ctx context.Context) ([]model.Driver, error)

	// ListPlans fetches plans matching the filter across pages.
	ListPlans(ctx context.Context, filter PlanFilter) ([]Plan, error)

	// ListPlanStops fetches all stops of a plan across pages.
	ListPlanStops(ctx context.Context, planID string) ([]Stop, error)
}
