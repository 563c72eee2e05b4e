// Package metrics records scan telemetry with Prometheus collectors.
package metrics

import (
	"fmt"
	"time"

	"github.com/huangsam/riskscan/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Signal names for the two statistics endpoints.
const (
	SignalParticipation = "participation"
	SignalContributors  = "contributors"
)

// Metrics holds the collectors for one process. A nil *Metrics is valid and
// records nothing, so callers never need to guard.
type Metrics struct {
	registry *prometheus.Registry

	fetchOutcomes    *prometheus.CounterVec
	fetchAttempts    *prometheus.HistogramVec
	fetchDuration    *prometheus.HistogramVec
	discovered       *prometheus.CounterVec
	skippedPackages  *prometheus.CounterVec
	snapshotRetries  prometheus.Counter
	snapshotRows     prometheus.Counter
	reposScored      prometheus.Counter
	reposUnavailable prometheus.Counter
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		fetchOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "riskscan_fetch_outcomes_total",
			Help: "Statistics fetch outcomes by signal and status.",
		}, []string{"signal", "status"}),
		fetchAttempts: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskscan_fetch_attempts",
			Help:    "Attempts spent per statistics fetch.",
			Buckets: []float64{1, 2, 3, 4, 5},
		}, []string{"signal"}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskscan_fetch_duration_seconds",
			Help:    "Wall time per statistics fetch including backoff.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"signal"}),
		discovered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "riskscan_registry_packages_discovered_total",
			Help: "Packages discovered per registry.",
		}, []string{"registry"}),
		skippedPackages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "riskscan_registry_packages_skipped_total",
			Help: "Packages skipped by the GitHub and popularity filter.",
		}, []string{"registry"}),
		snapshotRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "riskscan_snapshot_lock_retries_total",
			Help: "Snapshot write attempts retried because the store was locked.",
		}),
		snapshotRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "riskscan_snapshot_rows_written_total",
			Help: "Rows upserted into the risk report.",
		}),
		reposScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "riskscan_repos_scored_total",
			Help: "Repositories that produced a risk score.",
		}),
		reposUnavailable: factory.NewCounter(prometheus.CounterOpts{
			Name: "riskscan_repos_unavailable_total",
			Help: "Repositories with at least one unavailable signal.",
		}),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFetch records one completed fetch.
func (m *Metrics) ObserveFetch(signal string, status schema.FetchStatus, attempts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetchOutcomes.WithLabelValues(signal, string(status)).Inc()
	m.fetchAttempts.WithLabelValues(signal).Observe(float64(attempts))
	m.fetchDuration.WithLabelValues(signal).Observe(elapsed.Seconds())
}

// ObserveDiscovery records discovered and skipped package counts for a registry.
func (m *Metrics) ObserveDiscovery(registry schema.Registry, discovered, skipped int) {
	if m == nil {
		return
	}
	m.discovered.WithLabelValues(string(registry)).Add(float64(discovered))
	m.skippedPackages.WithLabelValues(string(registry)).Add(float64(skipped))
}

// ObserveSnapshotRetry records one lock-induced retry of the snapshot write.
func (m *Metrics) ObserveSnapshotRetry() {
	if m == nil {
		return
	}
	m.snapshotRetries.Inc()
}

// ObserveSnapshotWrite records rows written by one successful upsert.
func (m *Metrics) ObserveSnapshotWrite(rows int) {
	if m == nil {
		return
	}
	m.snapshotRows.Add(float64(rows))
}

// ObserveScan records the outcome counts of one scan.
func (m *Metrics) ObserveScan(scored, unavailable int) {
	if m == nil {
		return
	}
	m.reposScored.Add(float64(scored))
	m.reposUnavailable.Add(float64(unavailable))
}

// WriteTextfile dumps all collectors in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
