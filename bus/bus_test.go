package bus

import (
	"testing"

	"github.com/signalsfoundry/orbital-sentinel/internal/logging"
)

func TestSubscribePublishUnsubscribe(t *testing.T) {
	b := New(logging.Noop())

	var got []any
	unsub := b.Subscribe("alerts", func(p any) { got = append(got, p) })

	b.Publish("alerts", "payload-1")
	if len(got) != 1 || got[0] != "payload-1" {
		t.Fatalf("after publish got %v, want [payload-1]", got)
	}

	unsub()
	b.Publish("alerts", "payload-2")
	if len(got) != 1 {
		t.Fatalf("subscriber invoked after unsubscribe: %v", got)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New(logging.Noop())

	calls := 0
	unsubA := b.Subscribe("logs", func(any) { calls++ })
	b.Subscribe("logs", func(any) { calls++ })

	unsubA()
	unsubA() // second invocation must not remove the other registration

	b.Publish("logs", nil)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (only the remaining subscriber)", calls)
	}
}

func TestPublishOrderFollowsSubscriptionOrder(t *testing.T) {
	b := New(logging.Noop())

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		b.Subscribe("connection", func(any) { order = append(order, i) })
	}

	b.Publish("connection", nil)
	for i, v := range order {
		if v != i {
			t.Fatalf("delivery order = %v, want ascending subscription order", order)
		}
	}
}

func TestPanickingSubscriberIsIsolated(t *testing.T) {
	b := New(logging.Noop())

	var after int
	b.Subscribe("alerts", func(any) { panic("boom") })
	b.Subscribe("alerts", func(any) { after++ })

	b.Publish("alerts", nil)
	b.Publish("alerts", nil)

	// The panicking handler stays registered and the later handler keeps
	// receiving every publish.
	if after != 2 {
		t.Fatalf("subscriber after panicking one got %d publishes, want 2", after)
	}
}

func TestPublishUnknownChannelIsNoop(t *testing.T) {
	b := New(logging.Noop())
	b.Publish("nobody-home", 42) // must not panic
	if n := b.SubscriberCount("nobody-home"); n != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", n)
	}
}

func TestTriggerUpdateReplaysSource(t *testing.T) {
	b := New(logging.Noop())
	b.RegisterSource("alerts", func() any { return []string{} })

	var got any
	received := false
	b.Subscribe("alerts", func(p any) { got, received = p, true })

	b.TriggerUpdate("alerts")
	if !received {
		t.Fatalf("TriggerUpdate did not reach subscriber")
	}
	if s, ok := got.([]string); !ok || len(s) != 0 {
		t.Fatalf("TriggerUpdate payload = %#v, want empty []string", got)
	}

	// A channel with no source is a logged no-op, not a panic.
	b.TriggerUpdate("settings")
}

func TestOnPublishObserver(t *testing.T) {
	b := New(logging.Noop())

	var observedCh Channel
	var observedN int
	b.OnPublish = func(ch Channel, delivered int) { observedCh, observedN = ch, delivered }

	b.Subscribe("logs", func(any) {})
	b.Subscribe("logs", func(any) {})
	b.Publish("logs", nil)

	if observedCh != "logs" || observedN != 2 {
		t.Fatalf("OnPublish observed (%q, %d), want (logs, 2)", observedCh, observedN)
	}
}
