// Package monitoring wires the Sentry SDK behind the core Monitor interface.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/routeup/routeup/config"
	coremon "github.com/routeup/routeup/core/monitoring"
)

// recoverFlush bounds how long a panicking goroutine waits for its report
// to leave the process before the panic resumes.
const recoverFlush = 2 * time.Second

// NewSentryMonitor initializes Sentry from the config and returns a Monitor.
// An empty DSN yields a NopMonitor so runs without Sentry need no special
// casing.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

type sentryMonitor struct{}

// CaptureException reports the error with the given tags. The upload manager
// passes run_id and route_title so reports map back to a manifest line.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// Recover reports a panic in the calling goroutine and re-raises it.
func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(recoverFlush)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
