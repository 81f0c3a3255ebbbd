// Package stats provides a unified interface for collecting cache metrics.
package stats

// Metric names emitted by the cache store and its resources.
const (
	// Store metrics.
	MetricReads         = "datacache_reads_total"
	MetricHits          = "datacache_hits_total"
	MetricMisses        = "datacache_misses_total"
	MetricInvalidations = "datacache_invalidations_total"
	MetricEntries       = "datacache_entries"

	// Retrieval metrics.
	MetricFetches     = "datacache_fetches_total"
	MetricFetchErrors = "datacache_fetch_errors_total"
	MetricFetchTime   = "datacache_fetch_seconds"
	MetricCoalesced   = "datacache_coalesced_total"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
