package daemon

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/sirseer/relay-exporter/internal/collector"
	"github.com/sirseer/relay-exporter/internal/config"
	"github.com/sirseer/relay-exporter/internal/metadata"
	"github.com/sirseer/relay-exporter/internal/metrics"
)

func TestDaemonLifecycle(t *testing.T) {
	dir := t.TempDir()
	record := `{"all": true, "duration": 12.5, "pullRequestsFetched": 340, "endTime": "2024-01-15T10:30:00Z"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme_widgets_metadata.json"), []byte(record), 0o644))

	scanner, err := metadata.NewScanner(dir)
	require.NoError(t, err)

	reg := prom.NewRegistry()
	coll := collector.New(scanner, metrics.NewPrometheusRecorder(reg))

	cfg := config.Config{Port: 0, MetadataDir: dir, IntervalSeconds: 60}
	d, err := New(cfg, coll, reg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Start(ctx))

	// The startup cycle ran before serving began.
	require.False(t, d.LastCycle().IsZero())

	resp, err := http.Get("http://" + d.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	exposition := string(body)
	require.Contains(t, exposition, `sirseer_fetch_state{repository="acme/widgets"} 1`)
	require.Contains(t, exposition, `sirseer_prs_fetched_total{repository="acme/widgets"} 340`)
	require.Contains(t, exposition, "go_goroutines", "runtime collectors registered")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, d.Stop(stopCtx))
}

func TestDaemonStartFailsOnBusyPort(t *testing.T) {
	dir := t.TempDir()
	scanner, err := metadata.NewScanner(dir)
	require.NoError(t, err)

	reg1 := prom.NewRegistry()
	d1, err := New(config.Config{Port: 0, MetadataDir: dir, IntervalSeconds: 60},
		collector.New(scanner, metrics.NewPrometheusRecorder(reg1)), reg1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d1.Start(ctx))
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = d1.Stop(stopCtx)
	}()

	_, portStr, err := net.SplitHostPort(d1.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	reg2 := prom.NewRegistry()
	d2, err := New(config.Config{Port: port, MetadataDir: dir, IntervalSeconds: 1},
		collector.New(scanner, metrics.NewPrometheusRecorder(reg2)), reg2)
	require.NoError(t, err)
	require.Error(t, d2.Start(ctx), "second bind of the same port must fail fast")

	// The failed Start must have torn its scheduler down again: with a 1s
	// interval still running, more cycles would land within this window.
	time.Sleep(2500 * time.Millisecond)
	require.Equal(t, 1.0, scansTotal(t, reg2),
		"only the synchronous startup cycle may have run after a failed Start")
}

// scansTotal reads the exporter's completed-cycle counter from a registry.
func scansTotal(t *testing.T, reg *prom.Registry) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "sirseer_exporter_scans_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}
