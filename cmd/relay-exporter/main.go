// Command relay-exporter serves sirseer-relay fetch metadata as
// Prometheus metrics. It periodically scans a directory of
// <repo>_metadata.json records and republishes their contents on
// GET /metrics for a scraper to pull.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/sirseer/relay-exporter/internal/collector"
	"github.com/sirseer/relay-exporter/internal/config"
	"github.com/sirseer/relay-exporter/internal/daemon"
	"github.com/sirseer/relay-exporter/internal/logfields"
	"github.com/sirseer/relay-exporter/internal/metadata"
	"github.com/sirseer/relay-exporter/internal/metrics"
	"github.com/sirseer/relay-exporter/internal/version"
)

// CLI definition; flag > env > config file > default.
type CLI struct {
	Port        int              `help:"Port to expose metrics on" default:"9100"`
	MetadataDir string           `help:"Directory containing metadata files" env:"SIRSEER_METADATA_DIR" default:"./metadata"`
	Interval    int              `help:"Metric collection interval in seconds" default:"30"`
	Watch       bool             `help:"Rescan early when metadata files change"`
	Config      string           `short:"c" help:"Optional YAML configuration file"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	config.LoadDotenv()

	var cli CLI
	kong.Parse(&cli,
		kong.Name("relay-exporter"),
		kong.Description("Prometheus exporter for sirseer-relay fetch metadata."),
		kong.Vars{"version": version.Version},
	)

	cfg, err := resolveConfig(&cli)
	if err != nil {
		slog.Error("Invalid configuration", logfields.Error(err))
		return 1
	}

	scanner, err := metadata.NewScanner(cfg.MetadataDir)
	if err != nil {
		slog.Error("Startup check failed", logfields.Error(err))
		return 1
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)
	coll := collector.New(scanner, recorder)

	d, err := daemon.New(cfg, coll, registry)
	if err != nil {
		slog.Error("Failed to create daemon", logfields.Error(err))
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := d.Start(ctx); err != nil {
		slog.Error("Failed to start exporter", logfields.Error(err))
		return 1
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping exporter...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		slog.Error("Shutdown did not complete cleanly", logfields.Error(err))
	}
	return 0
}

// resolveConfig merges flags, environment, and the optional config file.
// Kong already collapses flag > env > default; the file may only fill
// keys still sitting at their built-in default. Comparing against the
// built-in values (not the env-aware ones) keeps an env-supplied
// metadata directory locked against the file.
func resolveConfig(cli *CLI) (config.Config, error) {
	cfg := config.Config{
		Port:            cli.Port,
		MetadataDir:     cli.MetadataDir,
		IntervalSeconds: cli.Interval,
		Watch:           cli.Watch,
	}
	if cli.Config != "" {
		overlay := config.Overlay{
			Port:        cli.Port == config.DefaultPort,
			MetadataDir: cli.MetadataDir == config.DefaultMetadataDir,
			Interval:    cli.Interval == config.DefaultIntervalSeconds,
			Watch:       !cli.Watch,
		}
		if err := config.LoadFile(cli.Config, &cfg, overlay); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
