package events

import "time"

// CallRetried is published when the dispatch layer backs off a remote call.
// Status is 429 for rate limiting and 0 for a transport failure; Wait is the
// escalated wait or timeout.
type CallRetried struct {
	Class  string
	Status int
	Wait   time.Duration
}
