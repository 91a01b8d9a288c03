// Package daemon runs the exporter's long-lived pieces: the periodic
// collection loop, the Prometheus scrape endpoint, and the optional
// metadata-directory watcher. The collection cycle and the scrape handler
// share one registry; the Prometheus client guarantees per-series
// consistency under concurrent read and write.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sirseer/relay-exporter/internal/collector"
	"github.com/sirseer/relay-exporter/internal/config"
	"github.com/sirseer/relay-exporter/internal/logfields"
)

// Daemon owns the scheduler, HTTP server and watcher lifecycles.
type Daemon struct {
	cfg       config.Config
	collector *collector.Collector
	registry  *prom.Registry
	scheduler gocron.Scheduler
	server    *httpServer
	watcher   *DirWatcher

	baseOnce sync.Once
	// Unix seconds of the last completed cycle, read by /healthz.
	lastCycleUnix atomic.Int64
}

// New assembles a daemon. The registry must be the same one the
// collector's recorder was built on.
func New(cfg config.Config, coll *collector.Collector, reg *prom.Registry) (*Daemon, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	d := &Daemon{
		cfg:       cfg,
		collector: coll,
		registry:  reg,
		scheduler: sched,
	}
	d.server = newHTTPServer(cfg.Port, reg, d)
	return d, nil
}

// Start runs the first collection cycle synchronously, then brings up the
// periodic schedule, the optional directory watcher and the scrape
// endpoint. It returns once everything is running.
func (d *Daemon) Start(ctx context.Context) error {
	d.registerBaseCollectors()

	// First cycle before serving so the initial scrape is populated.
	d.runCycle(ctx)

	if _, err := d.scheduler.NewJob(
		gocron.DurationJob(d.cfg.Interval()),
		gocron.NewTask(func() { d.runCycle(context.Background()) }),
		gocron.WithName("collect-metadata"),
	); err != nil {
		return fmt.Errorf("schedule collection job: %w", err)
	}
	d.scheduler.Start()

	if d.cfg.Watch {
		w, err := NewDirWatcher(d.cfg.MetadataDir, func() { d.runCycle(context.Background()) })
		if err != nil {
			_ = d.stopBackground()
			return fmt.Errorf("create directory watcher: %w", err)
		}
		d.watcher = w
		if err := w.Start(ctx); err != nil {
			_ = d.stopBackground()
			return fmt.Errorf("start directory watcher: %w", err)
		}
	}

	// A failed bind must not leave the scheduler and watcher running
	// until process exit.
	if err := d.server.Start(ctx); err != nil {
		_ = d.stopBackground()
		return fmt.Errorf("start http server: %w", err)
	}

	slog.Info("Exporter started",
		logfields.Port(d.cfg.Port),
		logfields.Dir(d.cfg.MetadataDir),
		logfields.Interval(d.cfg.Interval().String()))
	return nil
}

// Stop shuts everything down gracefully, HTTP first so in-flight scrapes
// finish against a registry that is no longer being written.
func (d *Daemon) Stop(ctx context.Context) error {
	var firstErr error
	if err := d.server.Stop(ctx); err != nil {
		firstErr = err
	}
	if err := d.stopBackground(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// stopBackground stops the watcher and scheduler; shared between Stop and
// Start's error paths.
func (d *Daemon) stopBackground() error {
	if d.watcher != nil {
		d.watcher.Stop()
		d.watcher = nil
	}
	if err := d.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}

// runCycle executes one reconciliation pass under a time budget derived
// from the collection interval, so a hanging file read cannot stall the
// loop past its next tick.
func (d *Daemon) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, d.cfg.Interval())
	defer cancel()
	d.collector.RunCycle(cycleCtx)
	d.lastCycleUnix.Store(time.Now().Unix())
}

// Addr returns the metrics server's bound address, valid after Start.
// Mainly useful when the configured port is 0 (tests).
func (d *Daemon) Addr() string { return d.server.Addr() }

// LastCycle reports when the most recent cycle finished; the zero time
// means no cycle has completed yet.
func (d *Daemon) LastCycle() time.Time {
	unix := d.lastCycleUnix.Load()
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

func (d *Daemon) registerBaseCollectors() {
	d.baseOnce.Do(func() {
		d.registry.MustRegister(
			promcollect.NewGoCollector(),
			promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
		)
	})
}
