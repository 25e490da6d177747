package timectrl

import (
	"sync"
	"time"
)

// Clock abstracts time access so components depend on an injectable clock
// rather than the wall clock directly, enabling testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Scheduler drives the telemetry cadence: it invokes registered listeners on
// a fixed interval for as long as it is running. Start and Stop are both
// idempotent, and listener registrations survive Stop so a later Start
// resumes delivery without re-registering.
type Scheduler struct {
	mu        sync.Mutex
	interval  time.Duration
	clock     Clock
	listeners []func(time.Time)

	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewScheduler constructs a stopped scheduler. A nil clock defaults to the
// system clock.
func NewScheduler(interval time.Duration, clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		interval: interval,
		clock:    clock,
	}
}

// AddListener registers a callback invoked on every tick with the tick time.
// Listeners run sequentially in registration order on the scheduler
// goroutine, so no two listeners ever run concurrently.
func (s *Scheduler) AddListener(fn func(time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Running reports whether the periodic timer is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start begins the periodic timer. Calling Start while already running is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go s.loop(stop, done)
}

// Stop cancels the periodic timer and waits for an in-flight tick to finish.
// Calling Stop when already stopped is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}

// Tick runs one scheduling step immediately on the caller's goroutine,
// independent of the timer. Used by tests and on-demand refreshes.
func (s *Scheduler) Tick() {
	s.fire(s.clock.Now())
}

func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.fire(s.clock.Now())
		}
	}
}

func (s *Scheduler) fire(now time.Time) {
	s.mu.Lock()
	listeners := make([]func(time.Time), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(now)
	}
}
