// Package monitoring provides a process-wide error reporter. The upload
// manager tags captured errors with the run id and route title so crashes
// can be traced back to a manifest.
package monitoring

import "time"

// Monitor receives error reports and panic recoveries. Recover must be
// deferred directly on the Monitor value; calling it through a wrapper puts
// another frame between the deferred call and recover, which then sees
// nothing.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards all reports.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

// current is never nil: it starts as a NopMonitor and Init rejects nil.
var current Monitor = NopMonitor{}

// Init installs the monitor the package-level functions delegate to.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	current.CaptureException(err, tags)
}
