package supervisor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Iron-Ham/tun2proxyctl/internal/logbook"
	"github.com/Iron-Ham/tun2proxyctl/internal/privilege"
	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor/state"
)

const metricsNamespace = "tun2proxyctl"

// metrics holds the supervisor's Prometheus collectors. Each Supervisor
// registers its own set on the Registerer it was given.
type metrics struct {
	starts         *prometheus.CounterVec
	exits          *prometheus.CounterVec
	elevations     *prometheus.CounterVec
	kills          *prometheus.CounterVec
	terminateSigs  prometheus.Counter
	cleanups       prometheus.Counter
	logRecords     *prometheus.CounterVec
	runState       prometheus.Gauge
	launchFailures *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		starts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "starts_total",
			Help:      "Processes started, by mode (direct or elevated).",
		}, []string{"mode"}),
		exits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "exits_total",
			Help:      "Directly supervised process exits, by outcome.",
		}, []string{"outcome"}),
		elevations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "elevations_total",
			Help:      "Elevated start attempts, by result.",
		}, []string{"result"}),
		kills: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "kills_total",
			Help:      "Kill-by-name requests, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		terminateSigs: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "terminate_signals_total",
			Help:      "SIGTERM signals sent to the supervised process.",
		}),
		cleanups: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cleanups_total",
			Help:      "Lifecycle cleanups that released a process and cleared the run state.",
		}),
		logRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "log_records_total",
			Help:      "Log records appended, by origin.",
		}, []string{"origin"}),
		runState: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "run_state",
			Help:      "Current run state: 0 stopped, 1 running, 2 running elevated.",
		}),
		launchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "launch_failures_total",
			Help:      "Start requests that spawned nothing, by reason.",
		}, []string{"reason"}),
	}
}

func (m *metrics) record(origin logbook.Origin, n int) {
	m.logRecords.WithLabelValues(string(origin)).Add(float64(n))
}

func (m *metrics) state(s state.RunState) {
	m.runState.Set(float64(s))
}

func (m *metrics) kill(mode string, outcome privilege.KillOutcome, err error) {
	label := outcome.String()
	if err != nil {
		label = "failed"
	}
	m.kills.WithLabelValues(mode, label).Inc()
}
