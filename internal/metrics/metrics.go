// Package metrics exposes Prometheus counters for the output pipeline and
// the color cache.
package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/termview/internal/color"
)

const namespace = "termview"

// Metrics holds the output pipeline counters. It implements
// coalesce.Observer.
type Metrics struct {
	registry *prometheus.Registry

	resolver     atomic.Pointer[color.Resolver]
	resolverOnce sync.Once

	// Output metrics
	ChunksPushed   prometheus.Counter
	BytesPushed    prometheus.Counter
	Flushes        prometheus.Counter
	ForcedFlushes  prometheus.Counter
	BatchBytes     prometheus.Histogram
	ChunksDropped  prometheus.Counter
	BytesDropped   prometheus.Counter
	KeysSuppressed prometheus.Counter
}

// New creates the metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ChunksPushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_chunks_pushed_total",
			Help:      "Output chunks received from the backend",
		}),
		BytesPushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_bytes_pushed_total",
			Help:      "Output bytes received from the backend",
		}),
		Flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_flushes_total",
			Help:      "Merged buffers delivered to the consumer",
		}),
		ForcedFlushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_forced_flushes_total",
			Help:      "Deliveries made outside a frame tick",
		}),
		BatchBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "output_batch_bytes",
			Help:      "Size of each delivered batch in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		ChunksDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_chunks_discarded_total",
			Help:      "Pending chunks discarded by cancellation",
		}),
		BytesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_bytes_discarded_total",
			Help:      "Pending bytes discarded by cancellation",
		}),
		KeysSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_keys_suppressed_total",
			Help:      "Key events handled locally instead of reaching the backend",
		}),
	}
}

// ChunkPushed records one pushed chunk of n bytes.
func (m *Metrics) ChunkPushed(n int) {
	m.ChunksPushed.Inc()
	m.BytesPushed.Add(float64(n))
}

// Flushed records one delivery.
func (m *Metrics) Flushed(_ int, bytes int, forced bool) {
	m.Flushes.Inc()
	m.BatchBytes.Observe(float64(bytes))
	if forced {
		m.ForcedFlushes.Inc()
	}
}

// Discarded records a cancelled batch.
func (m *Metrics) Discarded(chunks, bytes int) {
	m.ChunksDropped.Add(float64(chunks))
	m.BytesDropped.Add(float64(bytes))
}

// ObserveResolver exports the resolver's cache statistics, read at scrape
// time. The collectors are registered on the first call; later calls switch
// them to the new resolver.
func (m *Metrics) ObserveResolver(r *color.Resolver) {
	m.resolver.Store(r)
	m.resolverOnce.Do(m.registerResolverFuncs)
}

func (m *Metrics) registerResolverFuncs() {
	factory := promauto.With(m.registry)
	stat := func(read func(color.Stats) float64) func() float64 {
		return func() float64 {
			r := m.resolver.Load()
			if r == nil {
				return 0
			}
			return read(r.Stats())
		}
	}

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "color_cache_hits_total",
		Help:      "Color lookups served from the cache",
	}, stat(func(s color.Stats) float64 { return float64(s.Hits) }))

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "color_cache_misses_total",
		Help:      "Color lookups that parsed a new spec",
	}, stat(func(s color.Stats) float64 { return float64(s.Misses) }))

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "color_cache_entries",
		Help:      "Memoized color specs",
	}, stat(func(s color.Stats) float64 { return float64(s.Entries) }))
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
