package metrics

import (
	"context"
	"time"

	"github.com/routeup/routeup/core/events"
	coremetrics "github.com/routeup/routeup/core/metrics"
	"github.com/routeup/routeup/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// events the upload manager does not sink directly: transport backoffs and
// plan deletions. Stage and run results reach the sink through the manager.
// The collector stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.CallRetried:
					if r, ok := sink.(coremetrics.CallRetryRecorder); ok {
						_ = r.RecordCallRetry(coremetrics.CallRetryEvent{
							Class:  e.Class,
							Status: e.Status,
							Wait:   e.Wait,
							Time:   time.Now(),
						})
					}
				case events.PlanDeleted:
					if r, ok := sink.(coremetrics.PlanDeletionRecorder); ok {
						_ = r.RecordPlanDeleted(coremetrics.PlanDeletedEvent{
							PlanID: e.PlanID,
							OK:     e.OK,
							Time:   time.Now(),
						})
					}
				}
			}
		}
	}()
}
