// Package notify carries the core's outbound notifications to observers
// (the control server, CLI watchers). Delivery is best-effort:
// the session lock is never held while publishing, and a slow subscriber
// drops events rather than stalling capture.
package notify

import (
	"sync"
	"sync/atomic"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

// Type enumerates the outbound notification kinds.
type Type string

const (
	StepCaptured   Type = "step-captured"
	StepUpdated    Type = "step-updated"
	StepDeleted    Type = "step-deleted"
	StepsReordered Type = "steps-reordered"
	StepsDiscarded Type = "steps-discarded"
)

// Event is one notification. Step is set for per-step events, StepID for
// deletions, Steps for reorders.
type Event struct {
	Type   Type         `json:"type"`
	Step   *guide.Step  `json:"step,omitempty"`
	StepID int          `json:"step_id,omitempty"`
	Steps  []guide.Step `json:"steps,omitempty"`
}

// StepCapturedEvent builds a step-captured notification.
func StepCapturedEvent(step guide.Step) Event {
	return Event{Type: StepCaptured, Step: &step}
}

// StepUpdatedEvent builds a step-updated notification.
func StepUpdatedEvent(step guide.Step) Event {
	return Event{Type: StepUpdated, Step: &step}
}

// StepDeletedEvent builds a step-deleted notification.
func StepDeletedEvent(id int) Event {
	return Event{Type: StepDeleted, StepID: id}
}

// StepsReorderedEvent builds a steps-reordered notification carrying the new order.
func StepsReorderedEvent(steps []guide.Step) Event {
	return Event{Type: StepsReordered, Steps: steps}
}

// StepsDiscardedEvent builds a steps-discarded notification.
func StepsDiscardedEvent() Event {
	return Event{Type: StepsDiscarded}
}

// Bus fans events out to subscriber channels.
type Bus struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	closed  bool
	dropped atomic.Uint64
}

// NewBus constructs an open bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a buffered subscription. The returned cancel func is
// safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if ch, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking. Events
// for a full subscriber are counted as dropped.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many events were discarded for slow subscribers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close terminates all subscriptions. Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
