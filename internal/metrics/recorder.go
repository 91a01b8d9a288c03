// Package metrics owns the exporter's Prometheus time series. Components
// record through the Recorder interface; the default NoopRecorder lets
// tests and partially-wired components skip metrics without nil checks,
// and PrometheusRecorder is the real implementation over an injected
// registry.
package metrics

import (
	"time"

	"github.com/sirseer/relay-exporter/internal/metadata"
)

// Recorder defines the observability hooks the reconciler drives each
// cycle. All repository-labeled gauges follow last-write-wins semantics
// within a cycle; counters only ever increase.
type Recorder interface {
	ObserveFetchDuration(repo string, kind metadata.FetchKind, seconds float64)
	SetPRsFetched(repo string, n float64)
	SetLastFetchTimestamp(repo string, epochSeconds float64)
	SetFetchState(repo string, state metadata.FetchState)
	IncFetchError(repo string, class metadata.ErrorClass)
	IncRateLimitEncounter(repo string)
	AddNetworkRetries(repo string, n float64)
	SetOutputFileSize(repo string, bytes float64)

	// Exporter self-observation.
	IncScan()
	ObserveScanDuration(d time.Duration)
	IncParseError(reason string)
}

// Parse-error reasons for the self-observation counter.
const (
	ParseErrorRead   = "read"
	ParseErrorDecode = "decode"
)

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(string, metadata.FetchKind, float64) {}
func (NoopRecorder) SetPRsFetched(string, float64)                            {}
func (NoopRecorder) SetLastFetchTimestamp(string, float64)                    {}
func (NoopRecorder) SetFetchState(string, metadata.FetchState)                {}
func (NoopRecorder) IncFetchError(string, metadata.ErrorClass)                {}
func (NoopRecorder) IncRateLimitEncounter(string)                             {}
func (NoopRecorder) AddNetworkRetries(string, float64)                        {}
func (NoopRecorder) SetOutputFileSize(string, float64)                        {}
func (NoopRecorder) IncScan()                                                 {}
func (NoopRecorder) ObserveScanDuration(time.Duration)                        {}
func (NoopRecorder) IncParseError(string)                                     {}
