package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "respkv"

// Command result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Registry holds all application metrics.
//
// All helper methods are safe to call on a nil *Registry, which makes
// metrics optional for components under test.
type Registry struct {
	registry *prometheus.Registry

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Connection metrics
	ConnectionsActive   prometheus.Gauge
	ConnectionsTotal    prometheus.Counter
	ConnectionsRejected prometheus.Counter
	ProtocolErrors      prometheus.Counter

	// Keyspace metrics
	KeysExpired prometheus.Counter
}

// NewRegistry creates a new metrics registry with Go runtime and
// process collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of commands processed.",
		}, []string{"command", "result"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution latency.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"command"}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		ConnectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections refused because max_connections was reached.",
		}),
		ProtocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Connections closed because of malformed frames.",
		}),
		KeysExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_expired_total",
			Help:      "Keys reclaimed by lazy expiry.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.CommandsTotal,
		r.CommandDuration,
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.ConnectionsRejected,
		r.ProtocolErrors,
		r.KeysExpired,
	)

	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns an HTTP handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Register adds a custom collector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// RecordCommand counts one executed command and its latency.
func (r *Registry) RecordCommand(command, result string, seconds float64) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(command, result).Inc()
	r.CommandDuration.WithLabelValues(command).Observe(seconds)
}

// ConnectionOpened records an accepted connection.
func (r *Registry) ConnectionOpened() {
	if r == nil {
		return
	}
	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
}

// ConnectionClosed records a closed connection.
func (r *Registry) ConnectionClosed() {
	if r == nil {
		return
	}
	r.ConnectionsActive.Dec()
}

// IncConnectionsRejected records a connection refused at the limit.
func (r *Registry) IncConnectionsRejected() {
	if r == nil {
		return
	}
	r.ConnectionsRejected.Inc()
}

// IncProtocolErrors records a connection dropped for a framing error.
func (r *Registry) IncProtocolErrors() {
	if r == nil {
		return
	}
	r.ProtocolErrors.Inc()
}

// IncKeysExpired records a key reclaimed by lazy expiry.
func (r *Registry) IncKeysExpired() {
	if r == nil {
		return
	}
	r.KeysExpired.Inc()
}
