package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chaosdash"

// Metrics counts client-side synchronization activity. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Snapshots       prometheus.Counter
	DecodeErrors    prometheus.Counter
	Reconnects      prometheus.Counter
	ChaosPushes     *prometheus.CounterVec
	SessionCommands *prometheus.CounterVec
}

// New registers the client collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_snapshots_total",
			Help:      "Telemetry snapshots decoded and applied.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_decode_errors_total",
			Help:      "Telemetry messages discarded because they failed to decode.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_reconnects_total",
			Help:      "Reconnection attempts scheduled after the telemetry connection closed.",
		}),
		ChaosPushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chaos_pushes_total",
			Help:      "Chaos config pushes by result.",
		}, []string{"result"}),
		SessionCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_commands_total",
			Help:      "Start/stop commands by command and result.",
		}, []string{"command", "result"}),
	}
	reg.MustRegister(m.Snapshots, m.DecodeErrors, m.Reconnects, m.ChaosPushes, m.SessionCommands)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SnapshotApplied() {
	if m != nil {
		m.Snapshots.Inc()
	}
}

func (m *Metrics) DecodeFailed() {
	if m != nil {
		m.DecodeErrors.Inc()
	}
}

func (m *Metrics) ReconnectScheduled() {
	if m != nil {
		m.Reconnects.Inc()
	}
}

func (m *Metrics) ChaosPushed(err error) {
	if m != nil {
		m.ChaosPushes.WithLabelValues(result(err)).Inc()
	}
}

func (m *Metrics) SessionCommand(command string, err error) {
	if m != nil {
		m.SessionCommands.WithLabelValues(command, result(err)).Inc()
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
