package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/signalsfoundry/orbital-sentinel/bus"
	"github.com/signalsfoundry/orbital-sentinel/internal/logging"
	"github.com/signalsfoundry/orbital-sentinel/model"
)

// SettingsKV is the external key/value collaborator persisting operator
// settings across restarts. Implementations live outside the core; see
// internal/kvstore for the Badger-backed one.
type SettingsKV interface {
	// Load returns the persisted settings and whether any were present.
	Load() (model.Settings, bool, error)
	// Store persists the settings.
	Store(model.Settings) error
}

// SettingsStore holds the current operator settings. Reads come from memory;
// writes merge, persist to the collaborator, and publish on the settings
// channel. A persistence failure leaves the in-memory settings applied and
// is surfaced to the caller.
type SettingsStore struct {
	mu      sync.Mutex
	current model.Settings

	kv  SettingsKV
	bus *bus.Bus
	log logging.Logger
}

// NewSettingsStore reads persisted settings once (falling back to defaults
// when absent or unreadable) and registers the snapshot source for the
// settings channel. kv may be nil for a purely in-memory store.
func NewSettingsStore(b *bus.Bus, kv SettingsKV, log logging.Logger) *SettingsStore {
	if log == nil {
		log = logging.Noop()
	}
	s := &SettingsStore{
		current: model.DefaultSettings(),
		kv:      kv,
		bus:     b,
		log:     log,
	}
	if kv != nil {
		persisted, ok, err := kv.Load()
		switch {
		case err != nil:
			log.Warn(context.Background(), "loading persisted settings failed; using defaults",
				logging.String("error", err.Error()))
		case ok:
			s.current = persisted
		}
	}
	b.RegisterSource(ChannelSettings, func() any { return s.Get() })
	return s
}

// Get returns the current settings.
func (s *SettingsStore) Get() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set merges the patch into the current settings, persists the result, and
// publishes the new snapshot. The merged settings stay applied in memory
// even when persistence fails; the error is returned so the caller can
// surface the degraded state.
func (s *SettingsStore) Set(patch model.SettingsPatch) error {
	s.mu.Lock()
	s.current = s.current.Merge(patch)
	merged := s.current
	s.mu.Unlock()

	var persistErr error
	if s.kv != nil {
		if err := s.kv.Store(merged); err != nil {
			persistErr = fmt.Errorf("persist settings: %w", err)
			s.log.Error(context.Background(), "settings persistence failed",
				logging.String("error", err.Error()))
		}
	}

	s.bus.Publish(ChannelSettings, merged)
	return persistErr
}
