package metadata

import (
	"path/filepath"
	"testing"
)

func TestNewScannerMissingDir(t *testing.T) {
	if _, err := NewScanner(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestScanEmptyDir(t *testing.T) {
	s, err := NewScanner(t.TempDir())
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	if got := s.Scan(); len(got) != 0 {
		t.Fatalf("expected no records, got %v", got)
	}
}

func TestScanMatchesOnlyRecords(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "acme_widgets_metadata.json", `{}`)
	writeRecord(t, dir, "beta_tools_metadata.json", `{}`)
	writeRecord(t, dir, "acme_widgets.ndjson", `{}`)
	writeRecord(t, dir, "state.json", `{}`)

	s, err := NewScanner(dir)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	got := s.Scan()
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %v", got)
	}
	// Sorted for deterministic cycle order.
	if filepath.Base(got[0]) != "acme_widgets_metadata.json" || filepath.Base(got[1]) != "beta_tools_metadata.json" {
		t.Errorf("unexpected order: %v", got)
	}
}
