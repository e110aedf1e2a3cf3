package circuit

import (
	"context"
	"sync"
	"time"
)

// Class partitions remote calls for pacing. All calls of a class share one
// wait ladder and one timeout ladder for the life of the process.
type Class int

const (
	ClassRead Class = iota
	ClassWrite
	ClassDelete
	ClassOptimize
)

func (c Class) String() string {
	switch c {
	case ClassRead:
		return "read"
	case ClassWrite:
		return "write"
	case ClassDelete:
		return "delete"
	case ClassOptimize:
		return "optimize"
	default:
		return "unknown"
	}
}

// Limits holds the initial pacing values. Reads get a short timeout, every
// other class the write timeout.
type Limits struct {
	ReadWait     time.Duration
	WriteWait    time.Duration
	OptimizeWait time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultLimits paces reads at ten per second and writes at five, matching
// the service's published limits.
func DefaultLimits() Limits {
	return Limits{
		ReadWait:     100 * time.Millisecond,
		WriteWait:    200 * time.Millisecond,
		OptimizeWait: 200 * time.Millisecond,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

type pace struct {
	wait    time.Duration
	timeout time.Duration
}

// Limiter paces calls per class. The wait doubles on every 429 and the
// timeout on every transport failure; both are monotonically non-decreasing
// and are never reset during a run. After N consecutive 429s on a class the
// next wait equals the initial wait times 2^N.
type Limiter struct {
	mu    sync.Mutex
	state map[Class]*pace
}

// NewLimiter builds a limiter from initial limits. Zero limits fields fall
// back to DefaultLimits; a fully zero Limits therefore gives the defaults,
// and tests pass tiny values to stay fast.
func NewLimiter(l Limits) *Limiter {
	def := DefaultLimits()
	if l.ReadWait <= 0 {
		l.ReadWait = def.ReadWait
	}
	if l.WriteWait <= 0 {
		l.WriteWait = def.WriteWait
	}
	if l.OptimizeWait <= 0 {
		l.OptimizeWait = def.OptimizeWait
	}
	if l.ReadTimeout <= 0 {
		l.ReadTimeout = def.ReadTimeout
	}
	if l.WriteTimeout <= 0 {
		l.WriteTimeout = def.WriteTimeout
	}
	return &Limiter{state: map[Class]*pace{
		ClassRead:     {wait: l.ReadWait, timeout: l.ReadTimeout},
		ClassWrite:    {wait: l.WriteWait, timeout: l.WriteTimeout},
		ClassDelete:   {wait: l.WriteWait, timeout: l.WriteTimeout},
		ClassOptimize: {wait: l.OptimizeWait, timeout: l.WriteTimeout},
	}}
}

// ZeroLimiter returns a limiter with no pre-call waits and short timeouts,
// for tests.
func ZeroLimiter() *Limiter {
	return &Limiter{state: map[Class]*pace{
		ClassRead:     {wait: 0, timeout: time.Second},
		ClassWrite:    {wait: 0, timeout: time.Second},
		ClassDelete:   {wait: 0, timeout: time.Second},
		ClassOptimize: {wait: 0, timeout: time.Second},
	}}
}

// Sleep blocks for the class's current wait, honoring context cancellation.
func (l *Limiter) Sleep(ctx context.Context, c Class) error {
	d := l.Wait(c)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Wait returns the class's current pre-call wait.
func (l *Limiter) Wait(c Class) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state[c].wait
}

// Timeout returns the class's current per-attempt timeout.
func (l *Limiter) Timeout(c Class) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state[c].timeout
}

// DoubleWait doubles the class's wait and returns the new value. Called on
// every 429.
func (l *Limiter) DoubleWait(c Class) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.state[c]
	if p.wait <= 0 {
		p.wait = time.Millisecond
	}
	p.wait *= 2
	return p.wait
}

// DoubleTimeout doubles the class's timeout and returns the new value.
// Called on every transport timeout or connection failure.
func (l *Limiter) DoubleTimeout(c Class) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.state[c]
	p.timeout *= 2
	return p.timeout
}
