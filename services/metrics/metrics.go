// Package metrics exposes the persistence events of the planner as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/cuaderno/core/planner"
)

const namespace = "cuaderno"

type Metrics struct {
	registry *prometheus.Registry

	remoteCalls    *prometheus.CounterVec
	remoteFailures *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	cacheWrites    *prometheus.CounterVec
	online         prometheus.Gauge
	syncDuration   *prometheus.HistogramVec
}

var _ planner.Metrics = (*Metrics)(nil)

// New registers the collectors (plus the Go and process ones) on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "calls_total",
			Help:      "Remote backend operations attempted.",
		}, []string{"op"}),
		remoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "failures_total",
			Help:      "Remote backend operations that failed.",
		}, []string{"op"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_fallbacks_total",
			Help:      "Operations served by the local cache only.",
		}, []string{"reason"}),
		cacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Local cache writes.",
		}, []string{"result"}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "online",
			Help:      "1 when the remote backend is reachable.",
		}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of full pushes to the remote backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.remoteCalls, m.remoteFailures, m.fallbacks, m.cacheWrites, m.online, m.syncDuration,
	)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) RemoteCall(op string)    { m.remoteCalls.WithLabelValues(op).Inc() }
func (m *Metrics) RemoteFailure(op string) { m.remoteFailures.WithLabelValues(op).Inc() }
func (m *Metrics) Fallback(reason string)  { m.fallbacks.WithLabelValues(reason).Inc() }
func (m *Metrics) CacheWrite(err error)    { m.cacheWrites.WithLabelValues(result(err)).Inc() }

func (m *Metrics) SetOnline(online bool) {
	if online {
		m.online.Set(1)
		return
	}
	m.online.Set(0)
}

func (m *Metrics) ObserveSync(seconds float64, err error) {
	m.syncDuration.WithLabelValues(result(err)).Observe(seconds)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
