// Command sentineld runs the realtime dispatch and simulation service: the
// event bus, its stateful stores, and the telemetry generator standing in
// for a live orbital-tracking feed. It serves Prometheus metrics and mirrors
// the alert/log/connection channels to stdout so the feed is observable
// without a UI attached.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/signalsfoundry/orbital-sentinel/core"
	"github.com/signalsfoundry/orbital-sentinel/internal/kvstore"
	"github.com/signalsfoundry/orbital-sentinel/internal/logging"
	"github.com/signalsfoundry/orbital-sentinel/internal/observability"
	"github.com/signalsfoundry/orbital-sentinel/model"
)

// Config is the daemon's environment configuration; flags override the
// addresses for local runs.
type Config struct {
	MetricsAddr string        `envconfig:"SENTINEL_METRICS_ADDR" default:":9090"`
	DataDir     string        `envconfig:"SENTINEL_DATA_DIR" default:"data/settings"`
	Interval    time.Duration `envconfig:"SENTINEL_TICK_INTERVAL" default:"3s"`
	LogCapacity int           `envconfig:"SENTINEL_LOG_CAPACITY" default:"150"`
	Seed        int64         `envconfig:"SENTINEL_RANDOM_SEED" default:"0"`
	Quiet       bool          `envconfig:"SENTINEL_QUIET" default:"false"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment configuration: %v\n", err)
		os.Exit(1)
	}

	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "HTTP address for Prometheus /metrics")
	dataDir := flag.String("data-dir", cfg.DataDir, "directory for the persisted settings store")
	interval := flag.Duration("tick", cfg.Interval, "telemetry generator interval")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}
	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	kv, err := kvstore.Open(*dataDir)
	if err != nil {
		log.Error(ctx, "failed to open settings store", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer kv.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	svc := core.New(core.Options{
		Interval:    *interval,
		LogCapacity: cfg.LogCapacity,
		Rand:        core.NewRand(seed),
		Logger:      log,
		Collector:   collector,
		SettingsKV:  kv,
	})

	if !cfg.Quiet {
		mirrorChannels(svc)
	}

	svc.Start()
	log.Info(ctx, "realtime service running",
		logging.String("tick", interval.String()),
		logging.Int("catalog_objects", len(svc.Catalog())),
	)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down realtime service")
	svc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

// mirrorChannels subscribes console printers to the well-known channels so a
// headless run shows the same feed the UI would.
func mirrorChannels(svc *core.Service) {
	svc.SubscribeNotifications(func(a model.AlertItem) {
		fmt.Printf("!! CRITICAL %s: %s vs %s, risk %.2f, miss %.2f km\n",
			a.ID, a.Pair.Primary, a.Pair.Secondary, a.Risk, a.MissDistanceKm)
	})
	svc.SubscribeLogs(func(entries []model.SystemLog) {
		if len(entries) == 0 {
			return
		}
		e := entries[len(entries)-1]
		fmt.Printf("[%s] %-7s %-10s %s\n", e.Timestamp.Format(time.RFC3339), e.Level, e.Source, e.Message)
	})
	svc.SubscribeConnection(func(c model.RealTimeConnection) {
		if c.Status != model.ConnectionConnected || c.MessagesReceived == 0 {
			fmt.Printf("-- link %s (messages=%d, latency=%s)\n", c.Status, c.MessagesReceived, c.DataLatency)
		}
	})

	// Replay current snapshots immediately instead of waiting a tick.
	svc.TriggerUpdate(core.ChannelConnection)
	svc.TriggerUpdate(core.ChannelLogs)
}

func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
