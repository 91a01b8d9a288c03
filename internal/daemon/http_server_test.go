package daemon

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/sirseer/relay-exporter/internal/metadata"
	"github.com/sirseer/relay-exporter/internal/metrics"
)

type fixedLastCycle struct{ t time.Time }

func (f fixedLastCycle) LastCycle() time.Time { return f.t }

func TestMetricsEndpointServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.SetFetchState("acme/widgets", metadata.StateSuccess)

	srv := newHTTPServer(0, reg, fixedLastCycle{})
	ts := httptest.NewServer(srv.server.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `sirseer_fetch_state{repository="acme/widgets"} 1`) {
		t.Errorf("exposition missing fetch_state series:\n%s", body)
	}
}

func TestHealthzReportsLastCycle(t *testing.T) {
	reg := prom.NewRegistry()

	srv := newHTTPServer(0, reg, fixedLastCycle{})
	ts := httptest.NewServer(srv.server.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Last-Cycle"); got != "" {
		t.Errorf("no cycle yet, header should be absent, got %q", got)
	}

	last := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	srv2 := newHTTPServer(0, reg, fixedLastCycle{t: last})
	ts2 := httptest.NewServer(srv2.server.Handler)
	defer ts2.Close()

	resp2, err := http.Get(ts2.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if got := resp2.Header.Get("X-Last-Cycle"); got != "2024-01-15T10:30:00Z" {
		t.Errorf("expected last-cycle header, got %q", got)
	}
}
