package sz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus instrumentation for environments. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	inFlight      prometheus.Gauge
	state         *prometheus.GaugeVec
	operations    *prometheus.CounterVec
	failures      *prometheus.CounterVec
	handles       *prometheus.CounterVec
	drainDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. Passing nil
// uses a fresh private registry, which is handy in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operations_in_flight",
			Help:      "Number of guarded operations currently executing",
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "environment_state",
			Help:      "1 for the current lifecycle state of the environment, 0 otherwise",
		}, []string{"state"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Guarded operations by name and outcome",
		}, []string{"operation", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Translated native failures by category",
		}, []string{"category"}),
		handles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handles_total",
			Help:      "Native handles opened and closed by family",
		}, []string{"family", "event"}),
		drainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "destroy_drain_seconds",
			Help:      "Time destroy spent waiting for in-flight operations",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{m.inFlight, m.state, m.operations, m.failures, m.handles, m.drainDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) operationStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) operationFinished(op string, err error) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if c, ok := CategoryOf(err); ok {
			m.failures.WithLabelValues(c.String()).Inc()
		}
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) rejected(op string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, "rejected").Inc()
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	for _, st := range []State{StateActive, StateDestroying, StateDestroyed} {
		v := 0.0
		if st == s {
			v = 1
		}
		m.state.WithLabelValues(st.String()).Set(v)
	}
}

func (m *Metrics) handleEvent(family, event string) {
	if m == nil {
		return
	}
	m.handles.WithLabelValues(family, event).Inc()
}

func (m *Metrics) drained(d time.Duration) {
	if m == nil {
		return
	}
	m.drainDuration.Observe(d.Seconds())
}
