// Package metrics exposes Prometheus instrumentation for the gate.
//
// All recording methods are safe on a nil *Metrics, so components can be
// constructed without instrumentation in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gate's collectors.
type Metrics struct {
	// decisions tracks connection decisions by result
	decisions *prometheus.CounterVec

	// adminOperations tracks admin commands by operation and outcome
	adminOperations *prometheus.CounterVec

	// confirmations tracks confirmation engine transitions
	confirmations *prometheus.CounterVec

	// pending tracks the number of live pending confirmations
	pending prometheus.Gauge

	// storeFaults tracks storage faults absorbed by the store
	storeFaults *prometheus.CounterVec
}

// New registers the gate's collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipgate_decisions_total",
				Help: "Total connection decisions by result",
			},
			[]string{"decision"},
		),
		adminOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipgate_admin_operations_total",
				Help: "Total admin operations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		confirmations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipgate_confirmations_total",
				Help: "Total confirmation engine transitions by result",
			},
			[]string{"result"},
		),
		pending: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "ipgate_pending_confirmations",
				Help: "Number of pending confirmations",
			},
		),
		storeFaults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipgate_store_faults_total",
				Help: "Total storage faults by operation",
			},
			[]string{"op"},
		),
	}
}

// Decision records a connection decision ("allow" or "deny").
func (m *Metrics) Decision(result string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(result).Inc()
}

// AdminOperation records the outcome of an admin operation.
func (m *Metrics) AdminOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.adminOperations.WithLabelValues(op, outcome).Inc()
}

// Confirmation records a confirmation transition and the resulting number of
// pending entries.
func (m *Metrics) Confirmation(result string, pending int) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(result).Inc()
	m.pending.Set(float64(pending))
}

// StoreFault records a storage fault for op.
func (m *Metrics) StoreFault(op string) {
	if m == nil {
		return
	}
	m.storeFaults.WithLabelValues(op).Inc()
}

// Handler serves the collectors gathered from g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
