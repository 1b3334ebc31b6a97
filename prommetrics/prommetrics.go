// Package prommetrics exports worker metrics to Prometheus.
package prommetrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hupe1980/distkmeans/collective"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements distkmeans.MetricsCollector on a private registry.
type Collector struct {
	registry *prometheus.Registry

	initDuration       prometheus.Histogram
	points             prometheus.Gauge
	rounds             prometheus.Counter
	roundDuration      prometheus.Histogram
	collectiveTotal    *prometheus.CounterVec
	collectiveBytes    *prometheus.CounterVec
	collectiveDuration *prometheus.HistogramVec
	emptyClusters      *prometheus.CounterVec
}

// New creates a Collector. Go runtime and process metrics are registered too.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: reg,
		initDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "distkmeans_init_duration_seconds",
			Help:    "Time to distribute the dataset and initial centers",
			Buckets: prometheus.DefBuckets,
		}),
		points: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "distkmeans_points",
			Help: "Number of points in the global dataset",
		}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distkmeans_rounds_total",
			Help: "Completed assignment+update rounds",
		}),
		roundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "distkmeans_round_duration_seconds",
			Help:    "Latency of one assignment+update round",
			Buckets: prometheus.DefBuckets,
		}),
		collectiveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "distkmeans_collectives_total",
			Help: "Collective operations by op and status",
		}, []string{"op", "status"}),
		collectiveBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "distkmeans_collective_bytes_total",
			Help: "Local buffer bytes taking part in collectives",
		}, []string{"op"}),
		collectiveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "distkmeans_collective_duration_seconds",
			Help:    "Latency of collective operations, including waiting for peers",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		emptyClusters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "distkmeans_empty_clusters_total",
			Help: "Rounds in which a cluster received no points",
		}, []string{"cluster"}),
	}

	reg.MustRegister(
		c.initDuration,
		c.points,
		c.rounds,
		c.roundDuration,
		c.collectiveTotal,
		c.collectiveBytes,
		c.collectiveDuration,
		c.emptyClusters,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordInit(points, _ int, duration time.Duration) {
	c.points.Set(float64(points))
	c.initDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordRound(_ int, duration time.Duration) {
	c.rounds.Inc()
	c.roundDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordCollective(op collective.Op, bytes int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.collectiveTotal.WithLabelValues(string(op), status).Inc()
	c.collectiveBytes.WithLabelValues(string(op)).Add(float64(bytes))
	c.collectiveDuration.WithLabelValues(string(op)).Observe(duration.Seconds())
}

func (c *Collector) RecordEmptyCluster(_, cluster int) {
	c.emptyClusters.WithLabelValues(strconv.Itoa(cluster)).Inc()
}
