package journal

import (
	"context"
	"time"
)

// Entry statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusUnknown = "unknown"
)

// Entry captures one route finishing one lifecycle stage during a run.
type Entry struct {
	Time       time.Time `json:"time"`
	RunID      string    `json:"run_id"`
	RouteTitle string    `json:"route_title"`
	PlanID     string    `json:"plan_id"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
}

// Query defines filters for retrieving entries.
type Query struct {
	Start      time.Time
	End        time.Time
	RunID      string
	RouteTitle string
	Stage      string
	Status     string
}

// Store persists journal entries and supports querying.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// NopStore discards entries and returns nothing.
type NopStore struct{}

func (NopStore) Append(context.Context, Entry) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Entry, error) { return nil, nil }
func (NopStore) Close() error                                 { return nil }

func (e Entry) matches(q Query) bool {
	if !q.Start.IsZero() && e.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Time.After(q.End) {
		return false
	}
	if q.RunID != "" && e.RunID != q.RunID {
		return false
	}
	if q.RouteTitle != "" && e.RouteTitle != q.RouteTitle {
		return false
	}
	if q.Stage != "" && e.Stage != q.Stage {
		return false
	}
	if q.Status != "" && e.Status != q.Status {
		return false
	}
	return true
}
