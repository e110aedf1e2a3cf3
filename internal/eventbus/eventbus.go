// Package eventbus carries run and stage events from the upload pipeline to
// in-process listeners such as the progress printer and the metrics collector.
package eventbus

import "sync"

// Event is any value published on the bus.
type Event interface{}

// subBuffer sizes subscriber channels. Stage events arrive in bursts when
// many routes finish a stage back to back; slow subscribers drop events
// rather than stall the run.
const subBuffer = 16

// EventBus fans published events out to every subscriber.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the channel-based EventBus used throughout the service.
type Bus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

// New returns an open Bus with no subscribers.
func New() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe adds a listener and returns its channel. After Close the
// returned channel is already closed, so ranging over it ends immediately.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs[ch] = struct{}{}
	}
	b.mu.Unlock()
	return ch
}

// Publish delivers e to every subscriber without blocking. A subscriber
// whose buffer is full misses the event.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Unsubscribe drops the listener and closes its channel. Calling it for a
// channel the bus no longer tracks, including after Close, does nothing.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		if ch == sub {
			delete(b.subs, ch)
			close(ch)
			return
		}
	}
}

// Close closes every subscriber channel and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
