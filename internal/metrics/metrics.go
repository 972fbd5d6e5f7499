// Package metrics exposes Prometheus counters and gauges for the watch pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "foldermon"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rawEvents        *prometheus.CounterVec
	watchErrors      prometheus.Counter
	classifiedEvents *prometheus.CounterVec
	filteredEvents   prometheus.Counter
	deliveryDrops    *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	trackedFiles     prometheus.Gauge
	listedFiles      prometheus.Gauge
	notifications    *prometheus.CounterVec
	sseDrops         *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers all collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		rawEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "events_total",
			Help:      "Total number of raw filesystem events received, per operation",
		}, []string{"op"}),
		watchErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watcher",
			Name:      "errors_total",
			Help:      "Total number of errors reported by the watch backend",
		}),
		classifiedEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "events_total",
			Help:      "Total number of events accepted by the classifier, per kind",
		}, []string{"kind"}),
		filteredEvents: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "filtered_total",
			Help:      "Total number of raw events rejected by the classifier",
		}),
		deliveryDrops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "dropped_total",
			Help:      "Total number of classified events dropped before reaching the tracker, per reason",
		}, []string{"reason"}),
		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "queue_depth",
			Help:      "Events waiting in the delivery queue at the last tick",
		}),
		trackedFiles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "tracked_files",
			Help:      "Number of paths currently in the status map",
		}),
		listedFiles: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "listed_files",
			Help:      "Number of files in the last directory listing",
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "notifications_total",
			Help:      "Total number of notification attempts, per result (sent/failed)",
		}, []string{"result"}),
		sseDrops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sse",
			Name:      "dropped_total",
			Help:      "Total number of server-sent events dropped, per event type",
		}, []string{"type"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RawEvent counts a raw watcher event.
func (m *Metrics) RawEvent(op string) {
	if m == nil {
		return
	}
	m.rawEvents.WithLabelValues(op).Inc()
}

// WatchError counts a backend error.
func (m *Metrics) WatchError() {
	if m == nil {
		return
	}
	m.watchErrors.Inc()
}

// Classified counts an accepted event.
func (m *Metrics) Classified(kind string) {
	if m == nil {
		return
	}
	m.classifiedEvents.WithLabelValues(kind).Inc()
}

// Filtered counts a rejected event.
func (m *Metrics) Filtered() {
	if m == nil {
		return
	}
	m.filteredEvents.Inc()
}

// DeliveryDropped counts an event that never reached the tracker.
func (m *Metrics) DeliveryDropped(reason string) {
	if m == nil {
		return
	}
	m.deliveryDrops.WithLabelValues(reason).Inc()
}

// SetQueueDepth records the delivery queue length seen by the consumer before it drains.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// SetTracked records the status map size and listing size.
func (m *Metrics) SetTracked(statuses, listed int) {
	if m == nil {
		return
	}
	m.trackedFiles.Set(float64(statuses))
	m.listedFiles.Set(float64(listed))
}

// Notification counts a notification attempt.
func (m *Metrics) Notification(ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.notifications.WithLabelValues(result).Inc()
}

// SSEDropped counts a dropped server-sent event.
func (m *Metrics) SSEDropped(eventType string) {
	if m == nil {
		return
	}
	m.sseDrops.WithLabelValues(eventType).Inc()
}
