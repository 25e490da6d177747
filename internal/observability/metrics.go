package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics of the realtime service and
// provides an HTTP handler exposing them.
type Collector struct {
	gatherer prometheus.Gatherer

	ActiveAlerts   prometheus.Gauge
	CriticalAlerts prometheus.Gauge
	LogEntries     prometheus.Gauge

	// ConnectionState encodes the link state machine:
	// 0 disconnected, 1 connecting, 2 connected.
	ConnectionState prometheus.Gauge

	BusPublishes  *prometheus.CounterVec
	Notifications prometheus.Counter

	GeneratorTicks prometheus.Counter
	TickDuration   prometheus.Histogram
}

// NewCollector registers the realtime metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_alerts_active",
		Help: "Current number of alerts in the ledger that are still active.",
	}), "realtime_alerts_active")
	if err != nil {
		return nil, err
	}

	critical, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_alerts_critical_active",
		Help: "Current number of critical-active alerts (risk >= 0.8, status active).",
	}), "realtime_alerts_critical_active")
	if err != nil {
		return nil, err
	}

	logEntries, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_log_entries",
		Help: "Current number of entries held by the bounded log store.",
	}), "realtime_log_entries")
	if err != nil {
		return nil, err
	}

	connState, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connection_state",
		Help: "Link state machine position: 0 disconnected, 1 connecting, 2 connected.",
	}), "realtime_connection_state")
	if err != nil {
		return nil, err
	}

	publishes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_bus_publishes_total",
		Help: "Total publishes on the event bus, labeled by channel.",
	}, []string{"channel"})
	publishes, err = registerCounterVec(reg, publishes, "realtime_bus_publishes_total")
	if err != nil {
		return nil, err
	}

	notifications, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "realtime_critical_notifications_total",
		Help: "Total alert transitions into the critical-active state.",
	}), "realtime_critical_notifications_total")
	if err != nil {
		return nil, err
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "realtime_generator_ticks_total",
		Help: "Total telemetry generator ticks executed.",
	}), "realtime_generator_ticks_total")
	if err != nil {
		return nil, err
	}

	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "realtime_generator_tick_duration_seconds",
		Help:    "Telemetry generator tick latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	})
	tickDuration, err = registerHistogram(reg, tickDuration, "realtime_generator_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		ActiveAlerts:    active,
		CriticalAlerts:  critical,
		LogEntries:      logEntries,
		ConnectionState: connState,
		BusPublishes:    publishes,
		Notifications:   notifications,
		GeneratorTicks:  ticks,
		TickDuration:    tickDuration,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetAlertCounts drives the alert gauges from a ledger snapshot.
func (c *Collector) SetAlertCounts(active, critical int) {
	if c == nil {
		return
	}
	if c.ActiveAlerts != nil {
		c.ActiveAlerts.Set(float64(active))
	}
	if c.CriticalAlerts != nil {
		c.CriticalAlerts.Set(float64(critical))
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
