package notify

import (
	"testing"
	"time"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	a, cancelA := bus.Subscribe(4)
	defer cancelA()
	b, cancelB := bus.Subscribe(4)
	defer cancelB()

	bus.Publish(StepCapturedEvent(guide.Step{ID: 1, Action: guide.ActionClick}))

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case event := <-ch:
			if event.Type != StepCaptured || event.Step == nil || event.Step.ID != 1 {
				t.Fatalf("%s: unexpected event %+v", name, event)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: no event delivered", name)
		}
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	_, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(StepDeletedEvent(1))
	bus.Publish(StepDeletedEvent(2))

	if got := bus.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped event, got %d", got)
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel() // idempotent

	if _, open := <-ch; open {
		t.Fatalf("expected channel closed after cancel")
	}

	// Must not panic with no subscribers.
	bus.Publish(StepsDiscardedEvent())
}

func TestBusCloseTerminatesSubscribers(t *testing.T) {
	bus := NewBus()
	ch, _ := bus.Subscribe(1)
	bus.Close()

	if _, open := <-ch; open {
		t.Fatalf("expected channel closed after bus close")
	}

	bus.Publish(StepsDiscardedEvent()) // no-op, no panic

	late, _ := bus.Subscribe(1)
	if _, open := <-late; open {
		t.Fatalf("expected immediate close for subscription after bus close")
	}
}
