package core

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/orbital-sentinel/bus"
	"github.com/signalsfoundry/orbital-sentinel/internal/logging"
	"github.com/signalsfoundry/orbital-sentinel/internal/observability"
	"github.com/signalsfoundry/orbital-sentinel/model"
	"github.com/signalsfoundry/orbital-sentinel/timectrl"
)

// DefaultInterval is the telemetry cadence when none is configured.
const DefaultInterval = 3 * time.Second

// Options configures a Service. The zero value is usable: system clock,
// seeded randomness, default cadence and capacities, no persistence, no
// metrics.
type Options struct {
	// Interval is the telemetry generator cadence.
	Interval time.Duration
	// LogCapacity bounds the log store.
	LogCapacity int
	// ReconnectDelay is how long reconnect attempts stay in connecting.
	ReconnectDelay time.Duration
	// Generator tunes the synthetic feed.
	Generator GeneratorConfig

	// Rand overrides the randomness source; tests inject deterministic ones.
	Rand Rand
	// Clock overrides time access.
	Clock timectrl.Clock
	// Logger receives operational logs; distinct from the SystemLog feed.
	Logger logging.Logger
	// Collector receives metrics when set.
	Collector *observability.Collector
	// SettingsKV is the external persistence collaborator; nil keeps
	// settings in memory only.
	SettingsKV SettingsKV
}

// Service is the realtime dispatch and simulation hub. It owns the event
// bus, the stateful stores, and the telemetry generator, and exposes the
// surface UI consumers program against. Construct one per process (or per
// test) and inject it; there is no package-level instance.
type Service struct {
	bus       *bus.Bus
	scheduler *timectrl.Scheduler

	catalog   *Catalog
	ledger    *AlertLedger
	logStore  *LogStore
	conn      *ConnectionTracker
	settings  *SettingsStore
	generator *TelemetryGenerator

	collector *observability.Collector
	log       logging.Logger
}

// New wires a stopped service.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Clock == nil {
		opts.Clock = timectrl.SystemClock{}
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	b := bus.New(opts.Logger)
	s := &Service{
		bus:       b,
		scheduler: timectrl.NewScheduler(opts.Interval, opts.Clock),
		collector: opts.Collector,
		log:       opts.Logger,
	}

	if c := opts.Collector; c != nil {
		b.OnPublish = func(ch bus.Channel, _ int) {
			c.BusPublishes.WithLabelValues(string(ch)).Inc()
			if ch == ChannelNotifications {
				c.Notifications.Inc()
			}
		}
	}

	s.catalog = NewCatalog(opts.Clock)
	s.ledger = NewAlertLedger(b, opts.Logger)
	s.logStore = NewLogStore(b, opts.Clock, opts.LogCapacity)
	s.conn = NewConnectionTracker(b, opts.Clock, opts.Logger, opts.ReconnectDelay)
	s.settings = NewSettingsStore(b, opts.SettingsKV, opts.Logger)
	s.generator = NewTelemetryGenerator(opts.Generator, s.catalog, s.ledger, s.logStore, s.conn, opts.Rand, opts.Logger)

	s.scheduler.AddListener(s.tick)
	return s
}

// Start begins the telemetry timer. Idempotent.
func (s *Service) Start() {
	if s.scheduler.Running() {
		return
	}
	s.log.Info(context.Background(), "realtime service starting")
	s.logStore.Append(model.LogInfo, "realtime service started", "service")
	s.scheduler.Start()
}

// Stop cancels the telemetry timer. Subscriber registrations are left
// intact, so a later Start resumes delivery without re-subscribing.
// Idempotent.
func (s *Service) Stop() {
	if !s.scheduler.Running() {
		return
	}
	s.scheduler.Stop()
	s.logStore.Append(model.LogInfo, "realtime service stopped", "service")
	s.log.Info(context.Background(), "realtime service stopped")
}

// IsRunning reports whether the telemetry timer is active.
func (s *Service) IsRunning() bool { return s.scheduler.Running() }

// Tick runs one generator cycle immediately, outside the timer. Exposed for
// tests and manual stepping.
func (s *Service) Tick() { s.scheduler.Tick() }

// Subscribe registers fn on the named channel and returns its unsubscribe
// function. The channel namespace is open; see the typed helpers for the
// well-known channels.
func (s *Service) Subscribe(ch bus.Channel, fn func(any)) (unsubscribe func()) {
	return s.bus.Subscribe(ch, bus.Handler(fn))
}

// TriggerUpdate replays the current authoritative value for the channel so a
// freshly mounted consumer gets an immediate snapshot.
func (s *Service) TriggerUpdate(ch bus.Channel) { s.bus.TriggerUpdate(ch) }

// SubscribeAlerts delivers the risk-descending alert snapshot on every
// alerts publish.
func (s *Service) SubscribeAlerts(fn func([]model.AlertItem)) (unsubscribe func()) {
	return s.bus.Subscribe(ChannelAlerts, func(p any) {
		v, ok := p.([]model.AlertItem)
		if !ok {
			s.badPayload(ChannelAlerts, p)
			return
		}
		fn(v)
	})
}

// SubscribeLogs delivers the newest-last log snapshot on every logs publish.
func (s *Service) SubscribeLogs(fn func([]model.SystemLog)) (unsubscribe func()) {
	return s.bus.Subscribe(ChannelLogs, func(p any) {
		v, ok := p.([]model.SystemLog)
		if !ok {
			s.badPayload(ChannelLogs, p)
			return
		}
		fn(v)
	})
}

// SubscribeConnection delivers connection snapshots on every transition and
// heartbeat.
func (s *Service) SubscribeConnection(fn func(model.RealTimeConnection)) (unsubscribe func()) {
	return s.bus.Subscribe(ChannelConnection, func(p any) {
		v, ok := p.(model.RealTimeConnection)
		if !ok {
			s.badPayload(ChannelConnection, p)
			return
		}
		fn(v)
	})
}

// SubscribeSettings delivers settings snapshots on every settings change.
func (s *Service) SubscribeSettings(fn func(model.Settings)) (unsubscribe func()) {
	return s.bus.Subscribe(ChannelSettings, func(p any) {
		v, ok := p.(model.Settings)
		if !ok {
			s.badPayload(ChannelSettings, p)
			return
		}
		fn(v)
	})
}

// SubscribeNotifications delivers one alert per transition into the
// critical-active state.
func (s *Service) SubscribeNotifications(fn func(model.AlertItem)) (unsubscribe func()) {
	return s.bus.Subscribe(ChannelNotifications, func(p any) {
		v, ok := p.(model.AlertItem)
		if !ok {
			s.badPayload(ChannelNotifications, p)
			return
		}
		fn(v)
	})
}

// badPayload reports a publisher delivering the wrong shape on a well-known
// channel. The typed helpers check payloads at the subscribe boundary so
// consumers never see a mistyped snapshot.
func (s *Service) badPayload(ch bus.Channel, p any) {
	s.log.Warn(context.Background(), "unexpected payload type on channel",
		logging.String("channel", string(ch)),
		logging.String("type", fmt.Sprintf("%T", p)),
	)
}

// Alerts returns the current alert snapshot, sorted by descending risk.
func (s *Service) Alerts() []model.AlertItem { return s.ledger.Snapshot() }

// AcknowledgeAlert transitions the alert to acknowledged. Unknown ids are a
// warning log entry, not an error; re-acknowledging is a no-op.
func (s *Service) AcknowledgeAlert(id string) {
	if !s.ledger.Acknowledge(id) {
		s.logStore.Append(model.LogWarning, "acknowledge requested for unknown alert", "alerts", id)
	}
}

// UpsertAlert feeds an externally produced alert into the ledger; a future
// live-feed integration calls this with parsed input instead of the
// generator's synthesis.
func (s *Service) UpsertAlert(a model.AlertItem) { s.ledger.Upsert(a) }

// Logs returns the current log snapshot, newest-last.
func (s *Service) Logs() []model.SystemLog { return s.logStore.List() }

// AddLog appends an operator-visible log entry and publishes the updated
// list.
func (s *Service) AddLog(level model.LogLevel, message, source string, details ...string) model.SystemLog {
	return s.logStore.Append(level, message, source, details...)
}

// ConnectionStatus returns the current link-health snapshot.
func (s *Service) ConnectionStatus() model.RealTimeConnection { return s.conn.Status() }

// Reconnect requests a new connection attempt; a no-op while one is already
// in flight.
func (s *Service) Reconnect() { s.conn.Reconnect() }

// Settings returns the current settings.
func (s *Service) Settings() model.Settings { return s.settings.Get() }

// UpdateSettings merges the patch, persists it, and publishes the result.
// Persistence failures leave the merged settings applied and surface as an
// error log entry plus the returned error.
func (s *Service) UpdateSettings(patch model.SettingsPatch) error {
	err := s.settings.Set(patch)
	if err != nil {
		s.logStore.Append(model.LogError, "failed to persist settings", "settings", err.Error())
	}
	return err
}

// Catalog exposes the tracked-object catalog backing the synthetic feed.
func (s *Service) Catalog() []model.SpaceObject { return s.catalog.Objects() }

func (s *Service) tick(now time.Time) {
	start := time.Now()
	s.generator.Tick(now)

	if c := s.collector; c != nil {
		active, critical := 0, 0
		for _, a := range s.ledger.Snapshot() {
			if a.Status == model.AlertActive {
				active++
			}
			if a.CriticalActive() {
				critical++
			}
		}
		c.SetAlertCounts(active, critical)
		c.LogEntries.Set(float64(s.logStore.Len()))
		c.ConnectionState.Set(connectionStateValue(s.conn.Status().Status))
		c.GeneratorTicks.Inc()
		c.TickDuration.Observe(time.Since(start).Seconds())
	}
}

func connectionStateValue(status model.ConnectionStatus) float64 {
	switch status {
	case model.ConnectionConnected:
		return 2
	case model.ConnectionConnecting:
		return 1
	default:
		return 0
	}
}
