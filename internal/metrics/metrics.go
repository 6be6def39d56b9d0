// Package metrics exports console counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"

	appversion "github.com/kubenetlabs/mlops-console/pkg/version"
)

const namespace = "mlops_console"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the console's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Fetches     *prometheus.CounterVec
	Mutations   *prometheus.CounterVec
	ModeToggles prometheus.Counter
	Transitions prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	version.Version = appversion.Version
	version.Revision = appversion.Commit
	version.BuildDate = appversion.Date

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Backend reads by resource, source and outcome.",
		}, []string{"resource", "source", "outcome"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutation_total",
			Help:      "Deployment mutations by operation, source and outcome.",
		}, []string{"operation", "source", "outcome"}),
		ModeToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mode_toggles_total",
			Help:      "Changes of the mock data mode.",
		}),
		Transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulated_transitions_total",
			Help:      "Simulated Creating to Running transitions of mock deployments.",
		}),
	}
	m.registry.MustRegister(
		m.Fetches,
		m.Mutations,
		m.ModeToggles,
		m.Transitions,
		versioncollector.NewCollector(namespace),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// ObserveFetch counts one backend read.
func (m *Metrics) ObserveFetch(resource, source string, err error) {
	m.Fetches.WithLabelValues(resource, source, outcome(err)).Inc()
}

// ObserveMutation counts one create or delete.
func (m *Metrics) ObserveMutation(operation, source string, err error) {
	m.Mutations.WithLabelValues(operation, source, outcome(err)).Inc()
}

// ObserveTransition counts one simulated transition.
func (m *Metrics) ObserveTransition() {
	m.Transitions.Inc()
}

// ObserveModeChange counts one mode change. Its signature matches a mode
// listener.
func (m *Metrics) ObserveModeChange(bool) {
	m.ModeToggles.Inc()
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
