package core

import (
	"context"
	"sort"
	"sync"

	"github.com/signalsfoundry/orbital-sentinel/bus"
	"github.com/signalsfoundry/orbital-sentinel/internal/logging"
	"github.com/signalsfoundry/orbital-sentinel/model"
)

// AlertLedger is the single source of truth for conjunction alerts. Every
// mutation republishes the full current alert set, sorted by descending risk,
// on the alerts channel. Transitions into the critical-active state emit one
// notification event each on the notifications channel.
type AlertLedger struct {
	mu     sync.Mutex
	alerts map[string]*model.AlertItem
	// insertion order, so equal-risk alerts sort stably across republishes
	order []string
	// ids that were critical-active in the last published snapshot
	critical map[string]bool

	bus *bus.Bus
	log logging.Logger
}

// NewAlertLedger constructs an empty ledger and registers it as the snapshot
// source for the alerts channel.
func NewAlertLedger(b *bus.Bus, log logging.Logger) *AlertLedger {
	if log == nil {
		log = logging.Noop()
	}
	l := &AlertLedger{
		alerts:   make(map[string]*model.AlertItem),
		critical: make(map[string]bool),
		bus:      b,
		log:      log,
	}
	b.RegisterSource(ChannelAlerts, func() any { return l.Snapshot() })
	return l
}

// Upsert inserts the alert or updates the existing record in place. The
// acknowledged status is terminal: an update can never flip an acknowledged
// alert back to active. Risk is clamped into [0,1] and priority recomputed
// from it.
func (l *AlertLedger) Upsert(a model.AlertItem) {
	l.mu.Lock()

	a.Risk = clamp01(a.Risk)
	a.Priority = model.PriorityForRisk(a.Risk)
	if a.MissDistanceKm < 0 {
		a.MissDistanceKm = 0
	}
	if a.RelativeVelocity < 0 {
		a.RelativeVelocity = 0
	}

	if a.Status == "" {
		a.Status = model.AlertActive
	}

	if existing, ok := l.alerts[a.ID]; ok {
		if existing.Status == model.AlertAcknowledged {
			a.Status = model.AlertAcknowledged
		}
		*existing = a
	} else {
		stored := a
		l.alerts[a.ID] = &stored
		l.order = append(l.order, a.ID)
	}

	snapshot, fresh := l.snapshotLocked()
	l.mu.Unlock()

	l.publish(snapshot, fresh)
}

// Acknowledge marks the alert as acknowledged and reports whether the id was
// known. Acknowledging an unknown id or an already-acknowledged alert is a
// benign no-op; the unknown case is additionally reported at warn level.
func (l *AlertLedger) Acknowledge(id string) bool {
	l.mu.Lock()
	a, ok := l.alerts[id]
	if !ok {
		l.mu.Unlock()
		l.log.Warn(context.Background(), "acknowledge of unknown alert id",
			logging.String("alert_id", id))
		return false
	}
	if a.Status == model.AlertAcknowledged {
		l.mu.Unlock()
		return true
	}
	a.Status = model.AlertAcknowledged

	snapshot, fresh := l.snapshotLocked()
	l.mu.Unlock()

	l.publish(snapshot, fresh)
	return true
}

// Snapshot returns a copy of the current alert set sorted by descending risk.
func (l *AlertLedger) Snapshot() []model.AlertItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot, _ := l.snapshotLocked()
	return snapshot
}

// Get returns the alert with the given id, if present.
func (l *AlertLedger) Get(id string) (model.AlertItem, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.alerts[id]
	if !ok {
		return model.AlertItem{}, false
	}
	return *a, true
}

// Len returns the number of alerts currently in the ledger.
func (l *AlertLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.alerts)
}

// snapshotLocked builds the risk-descending snapshot and the alerts that
// entered critical-active since the previous snapshot. It also advances the
// critical-active bookkeeping, so each transition is reported exactly once.
func (l *AlertLedger) snapshotLocked() ([]model.AlertItem, []model.AlertItem) {
	snapshot := make([]model.AlertItem, 0, len(l.alerts))
	for _, id := range l.order {
		snapshot = append(snapshot, *l.alerts[id])
	}
	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].Risk > snapshot[j].Risk
	})

	current := make(map[string]bool, len(l.critical))
	var fresh []model.AlertItem
	for _, a := range snapshot {
		if a.CriticalActive() {
			current[a.ID] = true
			if !l.critical[a.ID] {
				fresh = append(fresh, a)
			}
		}
	}
	l.critical = current

	return snapshot, fresh
}

func (l *AlertLedger) publish(snapshot, fresh []model.AlertItem) {
	l.bus.Publish(ChannelAlerts, snapshot)
	for _, a := range fresh {
		l.log.Info(context.Background(), "alert became critical-active",
			logging.String("alert_id", a.ID),
			logging.Any("risk", a.Risk),
		)
		l.bus.Publish(ChannelNotifications, a)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
