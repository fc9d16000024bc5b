package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records engine metrics into a Prometheus registry. It satisfies
// virtualizer.Recorder.
type Collector struct {
	rebuildDuration prometheus.Histogram
	extents         prometheus.Gauge
	bounded         prometheus.Counter
	batchDuration   *prometheus.HistogramVec
	batchItems      *prometheus.CounterVec
	renderDuration  prometheus.Histogram
}

// NewCollector registers the engine metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		rebuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vscroll_index_rebuild_duration_seconds",
			Help:    "Time to rebuild the position index",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
		extents: f.NewGauge(prometheus.GaugeOpts{
			Name: "vscroll_index_extents",
			Help: "Extents in the current position index",
		}),
		bounded: f.NewCounter(prometheus.CounterOpts{
			Name: "vscroll_index_bounded_rebuilds_total",
			Help: "Rebuilds that only laid out the initial window",
		}),
		batchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vscroll_batch_duration_seconds",
			Help:    "Time to generate a batch, by outcome",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10},
		}, []string{"outcome"}),
		batchItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vscroll_batch_items_total",
			Help: "Items requested from batch generation, by outcome",
		}, []string{"outcome"}),
		renderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vscroll_render_duration_seconds",
			Help:    "Time for the host to render one frame",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.016, 0.05, 0.1},
		}),
	}
}

// ObserveRebuild records one index rebuild.
func (c *Collector) ObserveRebuild(d time.Duration, extents int, bounded bool) {
	c.rebuildDuration.Observe(d.Seconds())
	c.extents.Set(float64(extents))
	if bounded {
		c.bounded.Inc()
	}
}

// ObserveBatch records one finished batch generation.
func (c *Collector) ObserveBatch(outcome string, d time.Duration, items int) {
	c.batchDuration.WithLabelValues(outcome).Observe(d.Seconds())
	c.batchItems.WithLabelValues(outcome).Add(float64(items))
}

// ObserveRender records one host frame render.
func (c *Collector) ObserveRender(d time.Duration) {
	c.renderDuration.Observe(d.Seconds())
}
