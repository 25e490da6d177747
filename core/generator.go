package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/orbital-sentinel/internal/logging"
	"github.com/signalsfoundry/orbital-sentinel/model"
)

// GeneratorConfig tunes the synthetic feed. Zero values pick the defaults.
type GeneratorConfig struct {
	// NewAlertProbability is the per-tick chance of a new conjunction.
	NewAlertProbability float64
	// DropProbability is the per-tick chance of a simulated link drop.
	DropProbability float64
	// MaxAlerts caps how many alerts the generator keeps in play.
	MaxAlerts int
	// RiskWalk bounds the per-tick random walk applied to alert risk.
	RiskWalk float64
	// ReconnectAfter is how long the generator leaves the link down before
	// requesting a reconnect on the operator's behalf.
	ReconnectAfter time.Duration
}

func (c GeneratorConfig) withDefaults() GeneratorConfig {
	if c.NewAlertProbability <= 0 {
		c.NewAlertProbability = 0.35
	}
	if c.DropProbability < 0 {
		c.DropProbability = 0
	} else if c.DropProbability == 0 {
		c.DropProbability = 0.02
	}
	if c.MaxAlerts <= 0 {
		c.MaxAlerts = 12
	}
	if c.RiskWalk <= 0 {
		c.RiskWalk = 0.06
	}
	if c.ReconnectAfter <= 0 {
		c.ReconnectAfter = 6 * time.Second
	}
	return c
}

// TelemetryGenerator synthesizes the periodic feed standing in for a live
// orbital-tracking downlink: it perturbs existing alerts, introduces new
// conjunctions drawn from the catalog, emits log entries about its activity,
// and feeds heartbeats into the connection tracker. One Tick is one feed
// cycle; the scheduler drives it.
type TelemetryGenerator struct {
	cfg     GeneratorConfig
	catalog *Catalog
	ledger  *AlertLedger
	logs    *LogStore
	conn    *ConnectionTracker
	rng     Rand
	log     logging.Logger
	tracer  trace.Tracer

	seq            uint64
	disconnectedAt time.Time
}

// NewTelemetryGenerator wires the generator to its stores.
func NewTelemetryGenerator(cfg GeneratorConfig, catalog *Catalog, ledger *AlertLedger, logs *LogStore, conn *ConnectionTracker, rng Rand, log logging.Logger) *TelemetryGenerator {
	if log == nil {
		log = logging.Noop()
	}
	if rng == nil {
		rng = NewRand(time.Now().UnixNano())
	}
	return &TelemetryGenerator{
		cfg:     cfg.withDefaults(),
		catalog: catalog,
		ledger:  ledger,
		logs:    logs,
		conn:    conn,
		rng:     rng,
		log:     log,
		tracer:  otel.Tracer("orbital-sentinel/telemetry"),
	}
}

// Tick runs one feed cycle at the given instant.
func (g *TelemetryGenerator) Tick(now time.Time) {
	ctx, span := g.tracer.Start(context.Background(), "telemetry.tick",
		trace.WithAttributes(attribute.Int("catalog.objects", g.catalog.Len())))
	defer span.End()

	g.stepConnection(ctx, now)

	// When the link is down no data flows; alert churn resumes after
	// reconnection, matching a real feed outage.
	if g.conn.Status().Status != model.ConnectionConnected {
		return
	}

	g.perturbAlerts(ctx, now)
	g.maybeNewAlert(ctx, now)
}

func (g *TelemetryGenerator) stepConnection(ctx context.Context, now time.Time) {
	status := g.conn.Status().Status

	if status == model.ConnectionDisconnected {
		if g.disconnectedAt.IsZero() {
			g.disconnectedAt = now
		}
		if now.Sub(g.disconnectedAt) >= g.cfg.ReconnectAfter {
			g.logs.Append(model.LogInfo, "attempting to re-establish realtime link", "connection")
			g.conn.Reconnect()
			g.disconnectedAt = time.Time{}
		}
		return
	}

	if status == model.ConnectionConnected && g.rng.Float64() < g.cfg.DropProbability {
		g.conn.Drop("simulated link fade")
		g.logs.Append(model.LogWarning, "realtime link lost", "connection",
			"simulated fade injected by telemetry generator")
		g.disconnectedAt = now
		return
	}

	latency := 20*time.Millisecond + time.Duration(g.rng.Float64()*180)*time.Millisecond
	g.conn.Heartbeat(now, latency)

	if g.conn.Status().Status == model.ConnectionConnected && status == model.ConnectionConnecting {
		g.log.Info(ctx, "realtime link established")
		g.logs.Append(model.LogSuccess, "realtime link established", "connection")
	}
}

// perturbAlerts applies a bounded random walk to each active alert so risk
// scores drift between ticks the way refreshed screening data would.
func (g *TelemetryGenerator) perturbAlerts(ctx context.Context, now time.Time) {
	for _, a := range g.ledger.Snapshot() {
		if a.Status != model.AlertActive {
			continue
		}

		wasCritical := a.CriticalActive()
		a.Risk = clamp01(a.Risk + (g.rng.Float64()-0.5)*2*g.cfg.RiskWalk)
		a.MissDistanceKm = a.MissDistanceKm * (0.9 + g.rng.Float64()*0.2)
		a.Time = a.Time.Add(time.Duration((g.rng.Float64()-0.5)*10) * time.Second)
		g.ledger.Upsert(a)

		if !wasCritical && a.Risk >= model.RiskCriticalThreshold {
			g.logs.Append(model.LogError, fmt.Sprintf("conjunction %s escalated to critical risk", a.ID),
				"telemetry", fmt.Sprintf("%s vs %s, risk %.2f", a.Pair.Primary, a.Pair.Secondary, a.Risk))
		}
	}
}

func (g *TelemetryGenerator) maybeNewAlert(ctx context.Context, now time.Time) {
	if g.ledger.Len() >= g.cfg.MaxAlerts || g.rng.Float64() >= g.cfg.NewAlertProbability {
		return
	}

	states := g.catalog.State(now)
	if len(states) < 2 {
		return
	}
	i := g.rng.Intn(len(states))
	j := g.rng.Intn(len(states) - 1)
	if j >= i {
		j++
	}
	primary, secondary := states[i], states[j]

	g.seq++
	alert := model.AlertItem{
		ID:     fmt.Sprintf("CDM-%06d", g.seq),
		Pair:   model.ObjectPair{Primary: primary.Object.Name, Secondary: secondary.Object.Name},
		Risk:   g.rng.Float64(), // exercises the full priority range
		Status: model.AlertActive,
		Time:   now.Add(time.Duration(5+g.rng.Intn(115)) * time.Minute),

		MissDistanceKm:   0.05 + g.rng.Float64()*49.95,
		AltitudeKm:       primary.Position.Norm() - earthRadiusKm,
		RelativeVelocity: primary.Velocity.Sub(secondary.Velocity).Norm(),
	}
	if g.rng.Float64() < 0.7 {
		conf := 0.5 + g.rng.Float64()*0.5
		alert.ConfidenceLevel = &conf
	}
	alert.ManeuverSuggested = alert.Risk >= model.RiskHighThreshold && g.rng.Float64() < 0.5

	g.ledger.Upsert(alert)
	g.log.Info(ctx, "new conjunction synthesized",
		logging.String("alert_id", alert.ID),
		logging.String("primary", alert.Pair.Primary),
		logging.String("secondary", alert.Pair.Secondary),
	)
	g.logs.Append(model.LogInfo, "new conjunction detected", "telemetry",
		fmt.Sprintf("%s vs %s, miss %.2f km", alert.Pair.Primary, alert.Pair.Secondary, alert.MissDistanceKm))
}
