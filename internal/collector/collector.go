// Package collector implements the metadata-to-metrics reconciliation
// engine. Each collection cycle scans the metadata directory, derives
// labeled time-series updates from every record, and reconciles the set
// of repositories seen this cycle against everything seen before so that
// repositories whose records disappear drop back to the never-fetched
// state instead of serving stale gauges forever.
package collector

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sirseer/relay-exporter/internal/logfields"
	"github.com/sirseer/relay-exporter/internal/metadata"
	"github.com/sirseer/relay-exporter/internal/metrics"
	"github.com/sirseer/relay-exporter/internal/util/sets"
)

// Collector drives one reconciliation cycle at a time against a shared
// metric registry (via the injected Recorder). The known-repositories
// table lives for the whole process; entries are never removed, only
// their last-seen cycle advances.
type Collector struct {
	scanner  *metadata.Scanner
	recorder metrics.Recorder

	mu       sync.Mutex
	cycle    uint64
	lastSeen map[string]uint64
}

// New creates a collector over the given scanner and recorder. A nil
// recorder falls back to the noop implementation.
func New(scanner *metadata.Scanner, recorder metrics.Recorder) *Collector {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Collector{
		scanner:  scanner,
		recorder: recorder,
		lastSeen: make(map[string]uint64),
	}
}

// RunCycle performs one full scan-and-update pass. Per-record failures
// are logged and skipped; they never abort the cycle. The context bounds
// the whole cycle: once it is done, remaining records are abandoned and
// the missing-repository sweep is skipped so a partial scan cannot
// mass-zero repositories that were simply never reached.
func (c *Collector) RunCycle(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	cycleID := uuid.NewString()
	c.cycle++

	paths := c.scanner.Scan()
	slog.Debug("Collection cycle started",
		logfields.CycleID(cycleID),
		logfields.Dir(c.scanner.Dir()),
		logfields.Count(len(paths)))

	seen := sets.New[string]()
	aborted := false
	for _, path := range paths {
		if ctx.Err() != nil {
			aborted = true
			break
		}
		rec, err := c.parseRecord(path)
		if err != nil {
			slog.Warn("Skipping unparseable metadata record",
				logfields.CycleID(cycleID),
				logfields.Path(path),
				logfields.Error(err))
			continue
		}
		c.applyRecord(rec)
		seen.Add(rec.Repository)
		c.lastSeen[rec.Repository] = c.cycle
	}

	// The deadline can also expire before the first record or after the
	// last one; any expiry means the sweep must not run, because zeroing
	// after a partial (or empty) pass would mass-reset repositories that
	// were never actually checked.
	if ctx.Err() != nil {
		aborted = true
	}
	if aborted {
		slog.Warn("Collection cycle deadline exceeded, skipping missing-repository sweep",
			logfields.CycleID(cycleID),
			logfields.Error(ctx.Err()))
	} else {
		c.sweepMissing(seen)
		c.recorder.IncScan()
	}
	c.recorder.ObserveScanDuration(time.Since(start))

	slog.Debug("Collection cycle finished",
		logfields.CycleID(cycleID),
		logfields.Count(len(seen)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
}

// KnownRepositories returns the identifiers of every repository observed
// since process start, in no particular order.
func (c *Collector) KnownRepositories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.lastSeen))
	for repo := range c.lastSeen {
		out = append(out, repo)
	}
	return out
}

func (c *Collector) parseRecord(path string) (*metadata.Record, error) {
	rec, err := metadata.ParseFile(path)
	if err != nil {
		reason := metrics.ParseErrorDecode
		if _, statErr := os.Stat(path); statErr != nil {
			reason = metrics.ParseErrorRead
		}
		c.recorder.IncParseError(reason)
		return nil, err
	}
	return rec, nil
}

// applyRecord derives all metric updates for one record. Gauges are
// last-write-wins within the cycle, so a duplicate repository id leaves
// the later record's values in place while counters accumulate from both.
func (c *Collector) applyRecord(rec *metadata.Record) {
	repo := rec.Repository

	if rec.Duration != nil {
		c.recorder.ObserveFetchDuration(repo, rec.Kind(), *rec.Duration)
	}
	if rec.PullRequestsFetched != nil {
		c.recorder.SetPRsFetched(repo, float64(*rec.PullRequestsFetched))
	}
	// An unparseable end time leaves the previous gauge value untouched.
	if done, ok := rec.CompletedAt(); ok {
		c.recorder.SetLastFetchTimestamp(repo, float64(done.Unix()))
	}

	state := rec.State()
	if state == metadata.StateFailed {
		class := metadata.ClassifyError(rec.Error)
		c.recorder.IncFetchError(repo, class)
		if class == metadata.ErrorRateLimit {
			c.recorder.IncRateLimitEncounter(repo)
		}
	}
	c.recorder.SetFetchState(repo, state)

	if rec.RetryCount != nil {
		// Assumed to be a per-cycle delta; a producer reporting a
		// running total would double-count here.
		c.recorder.AddNetworkRetries(repo, float64(*rec.RetryCount))
	}

	if rec.OutputFile != "" {
		// A vanished output file keeps its previous size gauge.
		if info, err := os.Stat(rec.OutputFile); err == nil {
			c.recorder.SetOutputFileSize(repo, float64(info.Size()))
		}
	}
}

// sweepMissing zeroes the fetch-state gauge of every repository known
// from a previous cycle whose record was absent from this one. The sweep
// repeats every cycle until a record for the repository reappears.
func (c *Collector) sweepMissing(seen sets.Set[string]) {
	for repo, last := range c.lastSeen {
		if seen.Has(repo) {
			continue
		}
		c.recorder.SetFetchState(repo, metadata.StateNeverFetched)
		slog.Debug("Repository record missing, reset to never fetched",
			logfields.Repository(repo),
			slog.Uint64("last_seen_cycle", last))
	}
}
