package circuit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewLimiterDefaults(t *testing.T) {
	l := NewLimiter(Limits{})
	if got := l.Wait(ClassRead); got != 100*time.Millisecond {
		t.Fatalf("expected default read wait, got %s", got)
	}
	if got := l.Timeout(ClassOptimize); got != 30*time.Second {
		t.Fatalf("optimize should use the write timeout, got %s", got)
	}
	if got := l.Wait(ClassDelete); got != 200*time.Millisecond {
		t.Fatalf("delete should use the write wait, got %s", got)
	}
}

func TestLimiterSleepHonorsContext(t *testing.T) {
	l := NewLimiter(Limits{ReadWait: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := l.Sleep(ctx, ClassRead)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("sleep did not abort on cancellation")
	}
}

func TestDoubleWaitSequence(t *testing.T) {
	l := NewLimiter(Limits{WriteWait: 100 * time.Millisecond})
	for i, want := range []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond} {
		if got := l.DoubleWait(ClassWrite); got != want {
			t.Fatalf("double %d: expected %s got %s", i, want, got)
		}
	}
}
