// Package prometheus provides a Prometheus-backed stats collector.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/justifica/datacache/internal/stats"
)

// FetchBuckets are the histogram buckets, in seconds, used for retrieval
// latencies. They span 5ms to roughly 10s.
var FetchBuckets = prometheus.ExponentialBuckets(0.005, 2, 12)

// Collector implements stats.Collector by lazily registering one Prometheus
// metric per name.
type Collector struct {
	registry prometheus.Registerer
	labels   prometheus.Labels

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

var _ stats.Collector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithConstLabels attaches constant labels to every metric the collector
// registers.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Collector) {
		c.labels = labels
	}
}

// New creates a Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer, opts ...Option) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	c := &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collector) IncCounter(name string, delta int64) {
	counter := lookup(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: name, ConstLabels: c.labels})
	})
	counter.Add(float64(delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	gauge := lookup(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: name, ConstLabels: c.labels})
	})
	gauge.Set(float64(value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := lookup(c, c.histograms, name, func() prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        name,
			Help:        name,
			ConstLabels: c.labels,
			Buckets:     FetchBuckets,
		})
	})
	histogram.Observe(value)
}

// lookup returns the metric cached under name, registering a fresh one on
// first use. A metric already present in the registry is adopted.
func lookup[M prometheus.Collector](c *Collector, cache map[string]M, name string, build func() M) M {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := cache[name]; ok {
		return m
	}

	m := build()
	if err := c.registry.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
		// Any other registration failure leaves m usable but unexported.
	}
	cache[name] = m
	return m
}
