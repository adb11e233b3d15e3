// Package metrics exposes Prometheus instrumentation for the watch
// pipeline, served on /metrics by the API server.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all watcher metrics.
type Registry struct {
	// Tail / queue
	LinesTailed  prometheus.Counter
	QueueDropped prometheus.Counter
	QueueDepth   prometheus.Gauge

	// Workers
	LinesProcessed prometheus.Counter
	DedupHits      prometheus.Counter
	WorkerErrors   prometheus.Counter

	// Classification
	Alerts      *prometheus.CounterVec
	ModelCalls  prometheus.Counter
	ModelErrors prometheus.Counter
	ReplayScans prometheus.Counter

	// Clients
	ClientsConnected prometheus.Gauge
	BroadcastsSent   prometheus.Counter
	SendFailures     prometheus.Counter
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.LinesTailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_lines_tailed_total",
		Help: "Lines read from the watched log file",
	})
	r.QueueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_queue_dropped_total",
		Help: "Lines dropped because the work queue was full",
	})
	r.QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firewatch_queue_depth",
		Help: "Lines currently buffered in the work queue",
	})

	r.LinesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_lines_processed_total",
		Help: "Lines dequeued and handled by workers",
	})
	r.DedupHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_dedup_hits_total",
		Help: "Lines suppressed as duplicates",
	})
	r.WorkerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_worker_errors_total",
		Help: "Errors recovered inside worker processing",
	})

	r.Alerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_alerts_total",
		Help: "Alerts produced by the classifier",
	}, []string{"bug_type", "severity"})
	r.ModelCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_model_calls_total",
		Help: "Calls made to the external classification model",
	})
	r.ModelErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_model_errors_total",
		Help: "Failed calls to the external classification model",
	})
	r.ReplayScans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_replay_scans_total",
		Help: "Full-history replay requests served",
	})

	r.ClientsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firewatch_clients_connected",
		Help: "Currently connected websocket clients",
	})
	r.BroadcastsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_broadcasts_total",
		Help: "Messages broadcast to all clients",
	})
	r.SendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firewatch_send_failures_total",
		Help: "Per-client send failures leading to client removal",
	})

	return r
}
