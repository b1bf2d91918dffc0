package render

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the render service collectors.
type Metrics struct {
	Requests  *prometheus.CounterVec
	CacheHits prometheus.Counter
	Duration  prometheus.Histogram
	GIFBytes  prometheus.Histogram
	Frames    prometheus.Histogram
	InFlight  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "c2g_render_requests_total",
				Help: "Render requests by outcome",
			},
			[]string{"outcome"},
		),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "c2g_render_cache_hits_total",
			Help: "Renders served from the cache",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "c2g_render_duration_seconds",
			Help:    "Time spent rendering a game",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		GIFBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "c2g_render_gif_bytes",
			Help:    "Size of rendered GIFs",
			Buckets: prometheus.ExponentialBuckets(16<<10, 2, 10),
		}),
		Frames: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "c2g_render_frames",
			Help:    "Frames per rendered game",
			Buckets: prometheus.LinearBuckets(20, 20, 10),
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "c2g_render_in_flight",
			Help: "Renders currently running",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.CacheHits, m.Duration, m.GIFBytes, m.Frames, m.InFlight)
	}
	return m
}

func (m *Metrics) observe(outcome string, elapsed time.Duration, bytes, frames int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
	if outcome != outcomeOK {
		return
	}
	m.Duration.Observe(elapsed.Seconds())
	m.GIFBytes.Observe(float64(bytes))
	m.Frames.Observe(float64(frames))
}
