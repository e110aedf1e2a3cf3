// Package events defines the upload lifecycle events emitted on the event bus.
//
// Available event types:
//   - RunStarted: an upload run began
//   - StageEvent: one route finished one lifecycle stage
//   - CallRetried: the dispatch layer backed off a remote call
//   - RunFinished: an upload run ended
//   - PlanDeleted: the deletion flow removed a plan, or failed to
package events
