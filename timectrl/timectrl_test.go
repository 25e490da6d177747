package timectrl

import (
	"sync"
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestTickInvokesListenersInOrder(t *testing.T) {
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := NewScheduler(time.Second, fixedClock{now: now})

	var order []int
	s.AddListener(func(ts time.Time) {
		if !ts.Equal(now) {
			t.Errorf("listener got %v, want %v", ts, now)
		}
		order = append(order, 1)
	})
	s.AddListener(func(time.Time) { order = append(order, 2) })

	s.Tick()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("listener order = %v, want [1 2]", order)
	}
}

func TestListenerAddedDuringTickRunsNextTick(t *testing.T) {
	s := NewScheduler(time.Second, fixedClock{now: time.Now()})

	late := 0
	added := false
	s.AddListener(func(time.Time) {
		if !added {
			added = true
			s.AddListener(func(time.Time) { late++ })
		}
	})

	// The tick runs over a snapshot of the listener list, so the listener
	// registered mid-tick first fires on the following tick.
	s.Tick()
	if late != 0 {
		t.Fatalf("listener added mid-tick fired on the same tick")
	}
	s.Tick()
	if late != 1 {
		t.Fatalf("late listener fired %d times after second tick, want 1", late)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	var mu sync.Mutex
	ticks := 0

	s := NewScheduler(5*time.Millisecond, nil)
	s.AddListener(func(time.Time) {
		mu.Lock()
		ticks++
		mu.Unlock()
	})

	s.Start()
	s.Start() // must not spawn a second timer
	time.Sleep(40 * time.Millisecond)
	s.Stop()

	mu.Lock()
	got := ticks
	mu.Unlock()

	// A doubled timer would roughly double the tick count; allow generous
	// slack for scheduling jitter.
	if got < 2 || got > 12 {
		t.Fatalf("ticks = %d, want a single timer's worth (2..12)", got)
	}
}

func TestStopIsIdempotentAndKeepsListeners(t *testing.T) {
	var mu sync.Mutex
	ticks := 0

	s := NewScheduler(5*time.Millisecond, nil)
	s.AddListener(func(time.Time) {
		mu.Lock()
		ticks++
		mu.Unlock()
	})

	s.Stop() // stopping a stopped scheduler is a no-op

	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	s.Stop()

	if s.Running() {
		t.Fatalf("Running() = true after Stop")
	}

	mu.Lock()
	afterFirstRun := ticks
	mu.Unlock()

	// Restarting resumes delivery to the same listeners.
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	mu.Lock()
	afterSecondRun := ticks
	mu.Unlock()

	if afterSecondRun <= afterFirstRun {
		t.Fatalf("no ticks delivered after restart: %d -> %d", afterFirstRun, afterSecondRun)
	}
}
