package core

import (
	"context"
	"sync"
	"time"

	"github.com/signalsfoundry/orbital-sentinel/bus"
	"github.com/signalsfoundry/orbital-sentinel/internal/logging"
	"github.com/signalsfoundry/orbital-sentinel/model"
	"github.com/signalsfoundry/orbital-sentinel/timectrl"
)

// DefaultReconnectDelay is how long a reconnect attempt stays in connecting
// before the next heartbeat completes it.
const DefaultReconnectDelay = 3 * time.Second

// activeChannels is the bookkeeping list reported on RealTimeConnection while
// the link is up. It mirrors the service's well-known channels; it is not the
// bus registration table.
var activeChannels = []string{
	string(ChannelAlerts),
	string(ChannelLogs),
	string(ChannelConnection),
	string(ChannelSettings),
}

// ConnectionTracker is the simulated link-health state machine:
// connecting → connected → disconnected → connecting → … Every transition
// publishes a snapshot on the connection channel.
type ConnectionTracker struct {
	mu          sync.Mutex
	state       model.RealTimeConnection
	reconnectAt time.Time

	delay time.Duration
	bus   *bus.Bus
	clock timectrl.Clock
	log   logging.Logger
}

// NewConnectionTracker starts in the connecting state; the first heartbeat
// completes the initial connection. A delay <= 0 uses DefaultReconnectDelay.
func NewConnectionTracker(b *bus.Bus, clock timectrl.Clock, log logging.Logger, delay time.Duration) *ConnectionTracker {
	if clock == nil {
		clock = timectrl.SystemClock{}
	}
	if log == nil {
		log = logging.Noop()
	}
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	t := &ConnectionTracker{
		state: model.RealTimeConnection{
			Status: model.ConnectionConnecting,
		},
		delay: delay,
		bus:   b,
		clock: clock,
		log:   log,
	}
	b.RegisterSource(ChannelConnection, func() any { return t.Status() })
	return t
}

// Heartbeat is fed on every generator tick. While connected it refreshes
// liveness metadata; while connecting it completes the pending transition
// once the reconnect delay has elapsed; while disconnected it is ignored.
func (t *ConnectionTracker) Heartbeat(now time.Time, latency time.Duration) {
	if latency < 0 {
		latency = 0
	}

	t.mu.Lock()
	switch t.state.Status {
	case model.ConnectionConnecting:
		if now.Before(t.reconnectAt) {
			t.mu.Unlock()
			return
		}
		t.state.Status = model.ConnectionConnected
		t.state.ConnectionTime = now
		t.state.LastHeartbeat = now
		t.state.DataLatency = latency
		t.state.MessagesReceived = 0
		t.state.SubscribedChannels = append([]string(nil), activeChannels...)
	case model.ConnectionConnected:
		t.state.LastHeartbeat = now
		t.state.DataLatency = latency
		t.state.MessagesReceived++
	default: // disconnected: no heartbeats flow
		t.mu.Unlock()
		return
	}
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.bus.Publish(ChannelConnection, snapshot)
}

// Drop simulates a link failure: the machine goes disconnected, active
// channel bookkeeping is cleared (bus registrations are untouched), and
// heartbeats stop having effect until Reconnect.
func (t *ConnectionTracker) Drop(reason string) {
	t.mu.Lock()
	if t.state.Status == model.ConnectionDisconnected {
		t.mu.Unlock()
		return
	}
	t.state.Status = model.ConnectionDisconnected
	t.state.SubscribedChannels = nil
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.log.Warn(context.Background(), "realtime link dropped", logging.String("reason", reason))
	t.bus.Publish(ChannelConnection, snapshot)
}

// Reconnect requests a new connection attempt. The machine enters connecting
// and the first heartbeat at or after the reconnect delay completes it.
// Calling Reconnect while already connecting is a no-op, so overlapping
// attempts cannot stack.
func (t *ConnectionTracker) Reconnect() {
	t.mu.Lock()
	if t.state.Status == model.ConnectionConnecting {
		t.mu.Unlock()
		return
	}
	t.state.Status = model.ConnectionConnecting
	t.state.SubscribedChannels = nil
	t.reconnectAt = t.clock.Now().Add(t.delay)
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.bus.Publish(ChannelConnection, snapshot)
}

// Status returns a copy of the current connection state.
func (t *ConnectionTracker) Status() model.RealTimeConnection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *ConnectionTracker) snapshotLocked() model.RealTimeConnection {
	snapshot := t.state
	snapshot.SubscribedChannels = append([]string(nil), t.state.SubscribedChannels...)
	return snapshot
}
