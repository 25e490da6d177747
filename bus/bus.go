// Package bus implements the process-local publish/subscribe hub that fans
// simulator state out to UI consumers. Channels are an open string-keyed
// namespace; publishing to a channel nobody listens on is a no-op.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/signalsfoundry/orbital-sentinel/internal/logging"
)

// Channel names a broadcast topic.
type Channel string

// Handler receives a published payload. Payloads are read-only snapshots:
// handlers must not mutate them.
type Handler func(payload any)

// SourceFunc returns the current authoritative value for a channel so a
// freshly mounted consumer can be replayed the latest snapshot on demand.
type SourceFunc func() any

type subscription struct {
	id uint64
	fn Handler
}

// Bus is the channel registry plus dispatch. Dispatch is synchronous and in
// subscription order; a handler that panics is isolated and reported, it
// neither stops the remaining handlers nor loses its registration.
type Bus struct {
	mu      sync.Mutex
	nextID  uint64
	subs    map[Channel][]subscription
	sources map[Channel]SourceFunc

	log logging.Logger

	// OnPublish, when set, observes every publish with the subscriber count
	// reached. Used to feed metrics without the bus importing them.
	OnPublish func(ch Channel, delivered int)
}

// New constructs an empty bus.
func New(log logging.Logger) *Bus {
	if log == nil {
		log = logging.Noop()
	}
	return &Bus{
		subs:    make(map[Channel][]subscription),
		sources: make(map[Channel]SourceFunc),
		log:     log,
	}
}

// Subscribe registers fn under ch and returns an unsubscribe function that
// removes exactly this registration. Calling the returned function more than
// once is a no-op.
func (b *Bus) Subscribe(ch Channel, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[ch] = append(b.subs[ch], subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[ch]
		for i, sub := range list {
			if sub.id == id {
				b.subs[ch] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount returns the number of live registrations on ch.
func (b *Bus) SubscriberCount(ch Channel) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[ch])
}

// Publish delivers payload to every handler currently registered on ch, in
// subscription order. Unknown channels have zero subscribers and publishing
// to them is not an error.
func (b *Bus) Publish(ch Channel, payload any) {
	b.mu.Lock()
	list := append([]subscription(nil), b.subs[ch]...)
	b.mu.Unlock()

	for _, sub := range list {
		b.dispatch(ch, sub, payload)
	}

	if b.OnPublish != nil {
		b.OnPublish(ch, len(list))
	}
}

func (b *Bus) dispatch(ch Channel, sub subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error(context.Background(), "subscriber panicked during dispatch",
				logging.String("channel", string(ch)),
				logging.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	sub.fn(payload)
}

// RegisterSource installs the snapshot provider consulted by TriggerUpdate.
// The owning store registers itself here; later registrations replace
// earlier ones.
func (b *Bus) RegisterSource(ch Channel, src SourceFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources[ch] = src
}

// TriggerUpdate re-publishes the current authoritative value for ch without
// waiting for the next scheduled tick. Channels with no registered source
// are logged at warn level and skipped.
func (b *Bus) TriggerUpdate(ch Channel) {
	b.mu.Lock()
	src := b.sources[ch]
	b.mu.Unlock()

	if src == nil {
		b.log.Warn(context.Background(), "triggerUpdate on channel with no source",
			logging.String("channel", string(ch)))
		return
	}
	b.Publish(ch, src())
}
