package dispatch

import (
	"context"

	"github.com/routeup/routeup/core/events"
)

// DeletePlans removes the given plans one by one, continuing past failures.
// It returns the ids actually deleted; when any deletion failed the list is
// accompanied by a *DeleteError naming the survivors.
func (m *Manager) DeletePlans(ctx context.Context, planIDs []string) ([]string, error) {
	var deleted []string
	var failed []PlanDeleteFailure
	for _, id := range planIDs {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		err := m.client.DeletePlan(ctx, id)
		if err != nil {
			m.logger.Warnf("delete plan %s: %v", id, err)
			failed = append(failed, PlanDeleteFailure{PlanID: id, Detail: err.Error()})
		} else {
			m.logger.Debugf("deleted plan %s", id)
			deleted = append(deleted, id)
		}
		if m.bus != nil {
			m.bus.Publish(events.PlanDeleted{PlanID: id, OK: err == nil})
		}
	}
	if len(failed) > 0 {
		return deleted, &DeleteError{Failed: failed}
	}
	return deleted, nil
}
