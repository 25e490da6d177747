package core

import (
	"sync"

	"github.com/google/uuid"

	"github.com/signalsfoundry/orbital-sentinel/bus"
	"github.com/signalsfoundry/orbital-sentinel/model"
	"github.com/signalsfoundry/orbital-sentinel/timectrl"
)

// DefaultLogCapacity bounds the log store when no capacity is configured.
const DefaultLogCapacity = 150

// LogStore is a bounded, insertion-ordered buffer of system log entries.
// Ordering is newest-last: Append adds at the tail and evicts from the head
// once capacity is exceeded. Every mutation publishes the full current list
// on the logs channel.
type LogStore struct {
	mu       sync.Mutex
	entries  []model.SystemLog
	capacity int

	bus   *bus.Bus
	clock timectrl.Clock
}

// NewLogStore constructs an empty store with the given capacity (the default
// when capacity <= 0) and registers it as the snapshot source for the logs
// channel.
func NewLogStore(b *bus.Bus, clock timectrl.Clock, capacity int) *LogStore {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	if clock == nil {
		clock = timectrl.SystemClock{}
	}
	s := &LogStore{
		capacity: capacity,
		bus:      b,
		clock:    clock,
	}
	b.RegisterSource(ChannelLogs, func() any { return s.List() })
	return s
}

// Append creates a log entry with a fresh id and the current timestamp,
// evicting the oldest entry when the store is full, then publishes the
// updated list. It returns the created entry.
func (s *LogStore) Append(level model.LogLevel, message, source string, details ...string) model.SystemLog {
	entry := model.SystemLog{
		ID:        uuid.NewString(),
		Timestamp: s.clock.Now(),
		Level:     level,
		Message:   message,
		Source:    source,
	}
	if len(details) > 0 {
		entry.Details = details[0]
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	if len(s.entries) > s.capacity {
		overflow := len(s.entries) - s.capacity
		s.entries = append([]model.SystemLog(nil), s.entries[overflow:]...)
	}
	snapshot := append([]model.SystemLog(nil), s.entries...)
	s.mu.Unlock()

	s.bus.Publish(ChannelLogs, snapshot)
	return entry
}

// List returns a newest-last copy of the current entries. The returned slice
// is the caller's to keep; mutating it does not affect the store.
func (s *LogStore) List() []model.SystemLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SystemLog(nil), s.entries...)
}

// Len returns the number of stored entries.
func (s *LogStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
