package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/orbital-sentinel/bus"
	"github.com/signalsfoundry/orbital-sentinel/internal/logging"
	"github.com/signalsfoundry/orbital-sentinel/model"
)

// constRand makes every draw deterministic.
type constRand struct{ v float64 }

func (r constRand) Float64() float64 { return r.v }
func (r constRand) Intn(n int) int   { return int(r.v * float64(n)) }

type generatorFixture struct {
	ledger  *AlertLedger
	logs    *LogStore
	conn    *ConnectionTracker
	gen     *TelemetryGenerator
	clock   *stubClock
	catalog *Catalog
}

func newGeneratorFixture(t *testing.T, rng Rand, cfg GeneratorConfig) *generatorFixture {
	t.Helper()
	b := bus.New(logging.Noop())
	clock := &stubClock{now: time.Date(2021, time.October, 3, 12, 0, 0, 0, time.UTC)}
	catalog := NewCatalog(clock)
	ledger := NewAlertLedger(b, logging.Noop())
	logs := NewLogStore(b, clock, 50)
	conn := NewConnectionTracker(b, clock, logging.Noop(), time.Nanosecond)
	return &generatorFixture{
		ledger:  ledger,
		logs:    logs,
		conn:    conn,
		gen:     NewTelemetryGenerator(cfg, catalog, ledger, logs, conn, rng, logging.Noop()),
		clock:   clock,
		catalog: catalog,
	}
}

func (f *generatorFixture) tick() {
	f.clock.now = f.clock.now.Add(3 * time.Second)
	f.gen.Tick(f.clock.now)
}

func TestTickConnectsThenSynthesizesAlerts(t *testing.T) {
	f := newGeneratorFixture(t, constRand{v: 0.1}, GeneratorConfig{})

	f.tick()
	if got := f.conn.Status().Status; got != model.ConnectionConnected {
		t.Fatalf("status after first tick = %s, want connected", got)
	}

	for i := 0; i < 5; i++ {
		f.tick()
	}
	if f.ledger.Len() == 0 {
		t.Fatalf("no alerts synthesized after several connected ticks")
	}
}

func TestGeneratedValuesRespectDomainRanges(t *testing.T) {
	f := newGeneratorFixture(t, constRand{v: 0.1}, GeneratorConfig{})

	for i := 0; i < 30; i++ {
		f.tick()
		for _, a := range f.ledger.Snapshot() {
			if a.Risk < 0 || a.Risk > 1 {
				t.Fatalf("alert %s risk %v out of [0,1]", a.ID, a.Risk)
			}
			if a.MissDistanceKm < 0 || a.AltitudeKm < 0 || a.RelativeVelocity < 0 {
				t.Fatalf("alert %s carries negative physical quantity: %+v", a.ID, a)
			}
			if a.ConfidenceLevel != nil && (*a.ConfidenceLevel < 0 || *a.ConfidenceLevel > 1) {
				t.Fatalf("alert %s confidence %v out of [0,1]", a.ID, *a.ConfidenceLevel)
			}
			if a.Priority != model.PriorityForRisk(a.Risk) {
				t.Fatalf("alert %s priority %s inconsistent with risk %v", a.ID, a.Priority, a.Risk)
			}
		}
	}
}

func TestGeneratorRespectsMaxAlerts(t *testing.T) {
	f := newGeneratorFixture(t, constRand{v: 0.1}, GeneratorConfig{MaxAlerts: 4})

	for i := 0; i < 20; i++ {
		f.tick()
	}
	if n := f.ledger.Len(); n > 4 {
		t.Fatalf("ledger grew to %d alerts, cap 4", n)
	}
}

func TestGeneratorEmitsLogAndPairNamesFromCatalog(t *testing.T) {
	f := newGeneratorFixture(t, constRand{v: 0.1}, GeneratorConfig{})

	for i := 0; i < 5; i++ {
		f.tick()
	}

	found := false
	for _, e := range f.logs.List() {
		if e.Message == "new conjunction detected" && e.Source == "telemetry" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no conjunction log entry emitted")
	}

	names := make(map[string]bool)
	for _, o := range f.catalog.Objects() {
		names[o.Name] = true
	}
	for _, a := range f.ledger.Snapshot() {
		if !names[a.Pair.Primary] || !names[a.Pair.Secondary] {
			t.Fatalf("alert pair %+v not drawn from catalog", a.Pair)
		}
		if a.Pair.Primary == a.Pair.Secondary {
			t.Fatalf("alert pairs an object with itself: %+v", a.Pair)
		}
	}
}

func TestGeneratorHeartbeatsAdvanceConnection(t *testing.T) {
	f := newGeneratorFixture(t, constRand{v: 0.1}, GeneratorConfig{})

	f.tick()
	before := f.conn.Status()
	f.tick()
	f.tick()
	after := f.conn.Status()

	if after.MessagesReceived <= before.MessagesReceived {
		t.Fatalf("messagesReceived did not advance: %d -> %d", before.MessagesReceived, after.MessagesReceived)
	}
	if !after.LastHeartbeat.After(before.LastHeartbeat) {
		t.Fatalf("lastHeartbeat did not advance")
	}
}

func TestDropAndAutoReconnectCycle(t *testing.T) {
	// Every draw is 0, so the drop probability check trips on each
	// connected tick and the generator immediately requests reconnection
	// once the grace period has passed.
	f := newGeneratorFixture(t, constRand{v: 0}, GeneratorConfig{ReconnectAfter: time.Second})

	f.tick() // connects
	f.tick() // drops
	if got := f.conn.Status().Status; got != model.ConnectionDisconnected {
		t.Fatalf("status after injected drop = %s, want disconnected", got)
	}

	f.tick() // grace elapsed: reconnect requested
	if got := f.conn.Status().Status; got != model.ConnectionConnecting {
		t.Fatalf("status after reconnect request = %s, want connecting", got)
	}

	f.tick() // heartbeat completes the reconnect
	if got := f.conn.Status().Status; got != model.ConnectionConnected {
		t.Fatalf("status after reconnect heartbeat = %s, want connected", got)
	}

	var dropLogged, reconnectLogged bool
	for _, e := range f.logs.List() {
		switch e.Message {
		case "realtime link lost":
			dropLogged = true
		case "attempting to re-establish realtime link":
			reconnectLogged = true
		}
	}
	if !dropLogged || !reconnectLogged {
		t.Fatalf("link cycle not reflected in logs (drop=%v reconnect=%v)", dropLogged, reconnectLogged)
	}
}

func TestNoAlertChurnWhileDisconnected(t *testing.T) {
	f := newGeneratorFixture(t, constRand{v: 0}, GeneratorConfig{ReconnectAfter: time.Hour})

	f.tick() // connects, synthesizes one alert
	f.tick() // drops
	count := f.ledger.Len()

	for i := 0; i < 5; i++ {
		f.tick()
	}
	if f.ledger.Len() != count {
		t.Fatalf("alerts changed while link down: %d -> %d", count, f.ledger.Len())
	}
}
