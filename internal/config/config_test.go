package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	t.Setenv(EnvMetadataDir, "")
	cfg := Default()
	if cfg.Port != 9100 {
		t.Errorf("expected default port 9100, got %d", cfg.Port)
	}
	if cfg.MetadataDir != "./metadata" {
		t.Errorf("expected default dir ./metadata, got %s", cfg.MetadataDir)
	}
	if cfg.Interval() != 30*time.Second {
		t.Errorf("expected 30s interval, got %s", cfg.Interval())
	}
}

func TestDefaultHonorsEnvOverride(t *testing.T) {
	t.Setenv(EnvMetadataDir, "/srv/relay/metadata")
	cfg := Default()
	if cfg.MetadataDir != "/srv/relay/metadata" {
		t.Errorf("expected env dir, got %s", cfg.MetadataDir)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"zero interval", func(c *Config) { c.IntervalSeconds = 0 }, true},
		{"empty dir", func(c *Config) { c.MetadataDir = "" }, true},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); (err != nil) != tc.wantErr {
			t.Errorf("%s: unexpected validate result: %v", tc.name, err)
		}
	}
}

func TestLoadFileRespectsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exporter.yaml")
	body := "port: 9200\nmetadata_dir: /from/file\ninterval_seconds: 60\nwatch: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Port = 9999 // pretend a flag set this
	overlay := Overlay{Port: false, MetadataDir: true, Interval: true, Watch: true}
	if err := LoadFile(path, &cfg, overlay); err != nil {
		t.Fatalf("load file: %v", err)
	}

	if cfg.Port != 9999 {
		t.Errorf("flag-set port should win, got %d", cfg.Port)
	}
	if cfg.MetadataDir != "/from/file" {
		t.Errorf("expected file dir, got %s", cfg.MetadataDir)
	}
	if cfg.IntervalSeconds != 60 {
		t.Errorf("expected file interval 60, got %d", cfg.IntervalSeconds)
	}
	if !cfg.Watch {
		t.Error("expected watch enabled from file")
	}
}

func TestLoadFilePartialKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exporter.yaml")
	if err := os.WriteFile(path, []byte("interval_seconds: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvMetadataDir, "")
	cfg := Default()
	all := Overlay{Port: true, MetadataDir: true, Interval: true, Watch: true}
	if err := LoadFile(path, &cfg, all); err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.IntervalSeconds != 10 {
		t.Errorf("expected interval 10, got %d", cfg.IntervalSeconds)
	}
	if cfg.Port != DefaultPort || cfg.MetadataDir != DefaultMetadataDir {
		t.Errorf("absent keys should keep defaults, got %+v", cfg)
	}
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()
	if err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg, Overlay{}); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadFile(path, &cfg, Overlay{}); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
