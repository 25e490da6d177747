package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/orbital-sentinel/bus"
	"github.com/signalsfoundry/orbital-sentinel/internal/logging"
	"github.com/signalsfoundry/orbital-sentinel/model"
)

func newTestTracker(clock *stubClock) (*ConnectionTracker, *bus.Bus) {
	b := bus.New(logging.Noop())
	return NewConnectionTracker(b, clock, logging.Noop(), 2*time.Second), b
}

func TestInitialHeartbeatConnects(t *testing.T) {
	clock := &stubClock{now: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}
	tracker, _ := newTestTracker(clock)

	if got := tracker.Status().Status; got != model.ConnectionConnecting {
		t.Fatalf("initial status = %s, want connecting", got)
	}

	tracker.Heartbeat(clock.now, 40*time.Millisecond)
	st := tracker.Status()
	if st.Status != model.ConnectionConnected {
		t.Fatalf("status after first heartbeat = %s, want connected", st.Status)
	}
	if !st.ConnectionTime.Equal(clock.now) {
		t.Fatalf("connectionTime = %v, want %v", st.ConnectionTime, clock.now)
	}
	if st.MessagesReceived != 0 {
		t.Fatalf("messagesReceived baseline = %d, want 0", st.MessagesReceived)
	}
	if len(st.SubscribedChannels) == 0 {
		t.Fatalf("subscribedChannels empty while connected")
	}
}

func TestHeartbeatsAccumulateWhileConnected(t *testing.T) {
	clock := &stubClock{now: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}
	tracker, _ := newTestTracker(clock)

	tracker.Heartbeat(clock.now, 10*time.Millisecond)
	for i := 0; i < 3; i++ {
		clock.now = clock.now.Add(3 * time.Second)
		tracker.Heartbeat(clock.now, 25*time.Millisecond)
	}

	st := tracker.Status()
	if st.MessagesReceived != 3 {
		t.Fatalf("messagesReceived = %d, want 3", st.MessagesReceived)
	}
	if !st.LastHeartbeat.Equal(clock.now) {
		t.Fatalf("lastHeartbeat = %v, want %v", st.LastHeartbeat, clock.now)
	}
	if st.DataLatency != 25*time.Millisecond {
		t.Fatalf("dataLatency = %v, want 25ms", st.DataLatency)
	}
}

func TestDropClearsChannelsAndStopsHeartbeats(t *testing.T) {
	clock := &stubClock{now: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}
	tracker, _ := newTestTracker(clock)

	tracker.Heartbeat(clock.now, 0)
	tracker.Drop("test")

	st := tracker.Status()
	if st.Status != model.ConnectionDisconnected {
		t.Fatalf("status after Drop = %s", st.Status)
	}
	if len(st.SubscribedChannels) != 0 {
		t.Fatalf("subscribedChannels after Drop = %v, want cleared", st.SubscribedChannels)
	}

	before := st.LastHeartbeat
	clock.now = clock.now.Add(10 * time.Second)
	tracker.Heartbeat(clock.now, 0)
	if got := tracker.Status().LastHeartbeat; !got.Equal(before) {
		t.Fatalf("heartbeat applied while disconnected")
	}
}

func TestReconnectCycleReachesConnected(t *testing.T) {
	clock := &stubClock{now: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}
	tracker, _ := newTestTracker(clock)

	tracker.Heartbeat(clock.now, 0)
	tracker.Drop("test")
	tracker.Reconnect()

	if got := tracker.Status().Status; got != model.ConnectionConnecting {
		t.Fatalf("status after Reconnect = %s, want connecting", got)
	}

	// A heartbeat before the reconnect delay elapses does not connect.
	clock.now = clock.now.Add(time.Second)
	tracker.Heartbeat(clock.now, 0)
	if got := tracker.Status().Status; got != model.ConnectionConnecting {
		t.Fatalf("connected before reconnect delay elapsed")
	}

	clock.now = clock.now.Add(2 * time.Second)
	tracker.Heartbeat(clock.now, 0)
	st := tracker.Status()
	if st.Status != model.ConnectionConnected {
		t.Fatalf("status = %s after delay, want connected", st.Status)
	}
	if st.MessagesReceived != 0 {
		t.Fatalf("messagesReceived not reset on reconnect: %d", st.MessagesReceived)
	}
}

func TestReconnectWhileConnectingIsNoop(t *testing.T) {
	clock := &stubClock{now: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}
	tracker, b := newTestTracker(clock)

	tracker.Heartbeat(clock.now, 0)
	tracker.Drop("test")

	transitions := 0
	b.Subscribe(ChannelConnection, func(any) { transitions++ })

	tracker.Reconnect()
	tracker.Reconnect() // overlapping attempt must not re-publish
	tracker.Reconnect()

	if transitions != 1 {
		t.Fatalf("connection events = %d, want 1 (no duplicate transitions)", transitions)
	}
}

func TestDropWhileDisconnectedIsNoop(t *testing.T) {
	clock := &stubClock{now: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}
	tracker, b := newTestTracker(clock)

	tracker.Heartbeat(clock.now, 0)
	tracker.Drop("first")

	events := 0
	b.Subscribe(ChannelConnection, func(any) { events++ })
	tracker.Drop("second")

	if events != 0 {
		t.Fatalf("redundant Drop published %d events, want 0", events)
	}
}
