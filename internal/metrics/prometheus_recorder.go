package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/sirseer/relay-exporter/internal/metadata"
)

// PrometheusRecorder implements Recorder using Prometheus metrics. Metric
// families keep the names the relay's original monitoring tooling
// established, so existing dashboards keep working.
type PrometheusRecorder struct {
	once sync.Once

	fetchDuration      *prom.HistogramVec
	prsFetched         *prom.GaugeVec
	fetchErrors        *prom.CounterVec
	lastFetchTimestamp *prom.GaugeVec
	fetchState         *prom.GaugeVec
	rateLimitHits      *prom.CounterVec
	networkRetries     *prom.CounterVec
	outputFileSize     *prom.GaugeVec

	scans        prom.Counter
	scanDuration prom.Histogram
	parseErrors  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.fetchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sirseer",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of fetch operation in seconds",
			Buckets:   prom.DefBuckets,
		}, []string{"repository", "fetch_type"})
		pr.prsFetched = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "sirseer",
			Name:      "prs_fetched_total",
			Help:      "Total number of PRs fetched",
		}, []string{"repository"})
		pr.fetchErrors = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sirseer",
			Name:      "fetch_errors_total",
			Help:      "Total number of fetch errors",
		}, []string{"repository", "error_type"})
		pr.lastFetchTimestamp = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "sirseer",
			Name:      "last_fetch_timestamp",
			Help:      "Unix timestamp of last successful fetch",
		}, []string{"repository"})
		pr.fetchState = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "sirseer",
			Name:      "fetch_state",
			Help:      "Current state of repository fetch (0=never_fetched, 1=success, 2=partial, 3=failed)",
		}, []string{"repository"})
		pr.rateLimitHits = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sirseer",
			Name:      "rate_limit_encounters_total",
			Help:      "Number of rate limit encounters",
		}, []string{"repository"})
		pr.networkRetries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sirseer",
			Name:      "network_retries_total",
			Help:      "Number of network retry attempts",
		}, []string{"repository"})
		pr.outputFileSize = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "sirseer",
			Name:      "output_file_size_bytes",
			Help:      "Size of output NDJSON file in bytes",
		}, []string{"repository"})

		pr.scans = prom.NewCounter(prom.CounterOpts{
			Namespace: "sirseer",
			Subsystem: "exporter",
			Name:      "scans_total",
			Help:      "Completed metadata collection cycles",
		})
		pr.scanDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sirseer",
			Subsystem: "exporter",
			Name:      "scan_duration_seconds",
			Help:      "Duration of metadata collection cycles",
			Buckets:   prom.DefBuckets,
		})
		pr.parseErrors = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sirseer",
			Subsystem: "exporter",
			Name:      "parse_errors_total",
			Help:      "Metadata records dropped because they could not be read or decoded",
		}, []string{"reason"})

		reg.MustRegister(pr.fetchDuration, pr.prsFetched, pr.fetchErrors,
			pr.lastFetchTimestamp, pr.fetchState, pr.rateLimitHits,
			pr.networkRetries, pr.outputFileSize,
			pr.scans, pr.scanDuration, pr.parseErrors)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveFetchDuration(repo string, kind metadata.FetchKind, seconds float64) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	p.fetchDuration.WithLabelValues(repo, string(kind)).Observe(seconds)
}

func (p *PrometheusRecorder) SetPRsFetched(repo string, n float64) {
	if p == nil || p.prsFetched == nil {
		return
	}
	p.prsFetched.WithLabelValues(repo).Set(n)
}

func (p *PrometheusRecorder) SetLastFetchTimestamp(repo string, epochSeconds float64) {
	if p == nil || p.lastFetchTimestamp == nil {
		return
	}
	p.lastFetchTimestamp.WithLabelValues(repo).Set(epochSeconds)
}

func (p *PrometheusRecorder) SetFetchState(repo string, state metadata.FetchState) {
	if p == nil || p.fetchState == nil {
		return
	}
	p.fetchState.WithLabelValues(repo).Set(float64(state))
}

func (p *PrometheusRecorder) IncFetchError(repo string, class metadata.ErrorClass) {
	if p == nil || p.fetchErrors == nil {
		return
	}
	p.fetchErrors.WithLabelValues(repo, string(class)).Inc()
}

func (p *PrometheusRecorder) IncRateLimitEncounter(repo string) {
	if p == nil || p.rateLimitHits == nil {
		return
	}
	p.rateLimitHits.WithLabelValues(repo).Inc()
}

func (p *PrometheusRecorder) AddNetworkRetries(repo string, n float64) {
	if p == nil || p.networkRetries == nil || n <= 0 {
		return
	}
	p.networkRetries.WithLabelValues(repo).Add(n)
}

func (p *PrometheusRecorder) SetOutputFileSize(repo string, bytes float64) {
	if p == nil || p.outputFileSize == nil {
		return
	}
	p.outputFileSize.WithLabelValues(repo).Set(bytes)
}

func (p *PrometheusRecorder) IncScan() {
	if p == nil || p.scans == nil {
		return
	}
	p.scans.Inc()
}

func (p *PrometheusRecorder) ObserveScanDuration(d time.Duration) {
	if p == nil || p.scanDuration == nil {
		return
	}
	p.scanDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncParseError(reason string) {
	if p == nil || p.parseErrors == nil {
		return
	}
	p.parseErrors.WithLabelValues(reason).Inc()
}
