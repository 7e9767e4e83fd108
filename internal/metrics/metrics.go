// Package metrics exposes Prometheus collectors for the API, the report
// engine and the live snapshot.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	reportBuilds    *prometheus.CounterVec
	reportCache     *prometheus.CounterVec
	snapshotVersion prometheus.Gauge
	snapshotRecords prometheus.Gauge
	events          *prometheus.CounterVec
	security        *prometheus.CounterVec
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kharcha",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kharcha",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		reportBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kharcha",
			Name:      "report_builds_total",
			Help:      "Reports computed from a snapshot, by report name.",
		}, []string{"report"}),
		reportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kharcha",
			Name:      "report_cache_lookups_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
		snapshotVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kharcha",
			Name:      "snapshot_version",
			Help:      "Version of the expense snapshot currently served.",
		}),
		snapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kharcha",
			Name:      "snapshot_records",
			Help:      "Number of expenses in the current snapshot.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kharcha",
			Name:      "events_total",
			Help:      "Change events by type and outcome.",
		}, []string{"type", "outcome"}),
		security: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kharcha",
			Name:      "security_events_total",
			Help:      "Rate-limited and suspicious requests.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.reportBuilds,
		m.reportCache,
		m.snapshotVersion,
		m.snapshotRecords,
		m.events,
		m.security,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveHTTP records one finished request. A nil *Metrics ignores every
// observation, as do the methods below.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ReportBuilt(report string) {
	if m == nil {
		return
	}
	m.reportBuilds.WithLabelValues(report).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reportCache.WithLabelValues(result).Inc()
}

func (m *Metrics) SnapshotChanged(version uint64, records int) {
	if m == nil {
		return
	}
	m.snapshotVersion.Set(float64(version))
	m.snapshotRecords.Set(float64(records))
}

// Event counts a published or consumed event; outcome is free-form, e.g.
// "published", "failed", "mirrored".
func (m *Metrics) Event(eventType, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, outcome).Inc()
}

// SecurityEvent counts a rejected or flagged request, kind being
// "rate_limited" or "suspicious".
func (m *Metrics) SecurityEvent(kind string) {
	if m == nil {
		return
	}
	m.security.WithLabelValues(kind).Inc()
}
