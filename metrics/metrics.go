// Package metrics exposes Prometheus collectors for the media pipeline.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/mediaroll/mediaroll/constant"
	"github.com/mediaroll/mediaroll/media"
	"github.com/mediaroll/mediaroll/preload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector on a private registry.
// It satisfies the observer interfaces of download, preload and stream.
type Metrics struct {
	registry *prometheus.Registry

	resolutions   *prometheus.CounterVec
	preloads      *prometheus.CounterVec
	streams       *prometheus.CounterVec
	queueLength   prometheus.Gauge
	downloadBytes *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constant.Mediaroll,
			Name:      "resolutions_total",
			Help:      "Endpoint resolutions by media kind and outcome.",
		}, []string{"kind", "outcome"}),
		preloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constant.Mediaroll,
			Name:      "preload_requests_total",
			Help:      "Preload requests and queue changes by outcome.",
		}, []string{"outcome"}),
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constant.Mediaroll,
			Name:      "stream_requests_total",
			Help:      "Stream requests by serving path and status code.",
		}, []string{"path", "status"}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: constant.Mediaroll,
			Name:      "preload_queue_length",
			Help:      "Items ready in the preload queue.",
		}),
		downloadBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: constant.Mediaroll,
			Name:      "download_bytes",
			Help:      "Size of completed downloads.",
			Buckets:   prometheus.ExponentialBuckets(64<<10, 4, 8),
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.resolutions,
		m.preloads,
		m.streams,
		m.queueLength,
		m.downloadBytes,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResolution counts one resolution attempt. err == nil counts as "ok".
func (m *Metrics) ObserveResolution(kind media.Kind, err error) {
	m.resolutions.WithLabelValues(kind.String(), outcome(err)).Inc()
}

func (m *Metrics) ObserveDownload(kind media.Kind, bytes int) {
	m.downloadBytes.WithLabelValues(kind.String()).Observe(float64(bytes))
}

func (m *Metrics) QueueChanged(o preload.Outcome, length int) {
	m.preloads.WithLabelValues(string(o)).Inc()
	m.queueLength.Set(float64(length))
}

func (m *Metrics) StreamServed(path string, status int) {
	m.streams.WithLabelValues(path, strconv.Itoa(status)).Inc()
}
