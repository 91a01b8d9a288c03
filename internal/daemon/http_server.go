package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/sirseer/relay-exporter/internal/logfields"
	"github.com/sirseer/relay-exporter/internal/metrics"
)

// lastCycler is the slice of the daemon /healthz needs.
type lastCycler interface {
	LastCycle() time.Time
}

// httpServer serves the scrape endpoint and a liveness probe.
type httpServer struct {
	port   int
	server *http.Server
	addr   string
}

func newHTTPServer(port int, reg *prom.Registry, health lastCycler) *httpServer {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.HTTPHandler(reg))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if last := health.LastCycle(); !last.IsZero() {
			w.Header().Set("X-Last-Cycle", last.UTC().Format(time.RFC3339))
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return &httpServer{
		port: port,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start pre-binds the port so startup fails fast with a clear error
// instead of a late 'address already in use' from the serve goroutine.
func (s *httpServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("bind port %d: %w", s.port, err)
	}
	s.addr = ln.Addr().String()
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	slog.Info("Metrics server listening", logfields.Port(s.port))
	return nil
}

// Addr returns the bound listen address, valid after Start.
func (s *httpServer) Addr() string { return s.addr }

func (s *httpServer) Stop(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}
