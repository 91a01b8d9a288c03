// Package metadata models the per-repository fetch metadata records that
// sirseer-relay writes next to its output files. Each record is a single
// JSON object named `<repo_with_slashes_as_underscores>_metadata.json`
// describing the outcome of one fetch attempt. The package knows how to
// locate records in a directory, parse them into a typed Record, and
// derive the canonical repository identifier from a record's filename.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileSuffix is the fixed naming convention for metadata records.
const FileSuffix = "_metadata.json"

// FetchKind distinguishes full fetches from incremental ones.
type FetchKind string

const (
	FetchFull        FetchKind = "full"
	FetchIncremental FetchKind = "incremental"
)

// Record is one fetch attempt's outcome for one repository. Fields mirror
// the JSON the relay producer writes; everything except Repository is
// optional and unknown fields are ignored. Pointer fields distinguish
// "absent" from a legitimate zero value.
type Record struct {
	// Repository is derived from the source filename, never from the
	// JSON body. Always non-empty for a parsed record.
	Repository string `json:"-"`

	All                 bool     `json:"all"`
	Duration            *float64 `json:"duration,omitempty"`
	PullRequestsFetched *int64   `json:"pullRequestsFetched,omitempty"`
	EndTime             string   `json:"endTime,omitempty"`
	Error               string   `json:"error,omitempty"`
	Partial             bool     `json:"partial,omitempty"`
	RetryCount          *int64   `json:"retryCount,omitempty"`
	OutputFile          string   `json:"outputFile,omitempty"`
}

// Kind returns the fetch kind implied by the record's "all" flag.
func (r *Record) Kind() FetchKind {
	if r.All {
		return FetchFull
	}
	return FetchIncremental
}

// State classifies the record into its terminal fetch state. An error
// message always dominates; partial success ranks above full success.
func (r *Record) State() FetchState {
	switch {
	case r.Error != "":
		return StateFailed
	case r.Partial:
		return StatePartial
	default:
		return StateSuccess
	}
}

// CompletedAt parses the record's end time. The producer writes RFC 3339
// (usually with a trailing Z); some older records carry a bare local
// timestamp which we treat as UTC. The second return is false when the
// field is absent or unparseable.
func (r *Record) CompletedAt() (time.Time, bool) {
	if r.EndTime == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, r.EndTime); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", r.EndTime); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// RepositoryFromFile reconstructs the canonical repository identifier from
// a record path: strip the suffix, then turn underscores back into
// slashes ("acme_widgets_metadata.json" -> "acme/widgets").
func RepositoryFromFile(path string) (string, error) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, FileSuffix) {
		return "", fmt.Errorf("not a metadata record: %s", base)
	}
	escaped := strings.TrimSuffix(base, FileSuffix)
	if escaped == "" {
		return "", fmt.Errorf("empty repository identifier: %s", base)
	}
	return strings.ReplaceAll(escaped, "_", "/"), nil
}

// ParseFile reads and decodes one record, attaching the filename-derived
// repository identifier. Any failure means the record is dropped by the
// caller; it never aborts a scan cycle.
func ParseFile(path string) (*Record, error) {
	repo, err := RepositoryFromFile(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", filepath.Base(path), err)
	}
	rec.Repository = repo
	return &rec, nil
}
