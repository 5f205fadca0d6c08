// Package metrics registers the Prometheus instruments for the custody
// protocol.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. Methods are safe
// on a nil receiver so tests can skip wiring.
type Metrics struct {
	TransfersResolved prometheus.Counter
	Mints             prometheus.Counter
	Burns             prometheus.Counter
	Clawbacks         prometheus.Counter
	UnitsCommitted    prometheus.Counter
	UnitsAborted      prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		TransfersResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rwa_transfers_resolved_total",
			Help: "Total transfer requests resolved under a valid capability",
		}),
		Mints: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rwa_mints_total",
			Help: "Total mint operations committed",
		}),
		Burns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rwa_burns_total",
			Help: "Total burn operations committed",
		}),
		Clawbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rwa_clawbacks_total",
			Help: "Total clawback operations committed",
		}),
		UnitsCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rwa_units_committed_total",
			Help: "Total atomic units committed",
		}),
		UnitsAborted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rwa_units_aborted_total",
			Help: "Total atomic units aborted and rolled back",
		}),
	}
}

func (m *Metrics) IncTransfersResolved() {
	if m != nil {
		m.TransfersResolved.Inc()
	}
}

func (m *Metrics) IncMints() {
	if m != nil {
		m.Mints.Inc()
	}
}

func (m *Metrics) IncBurns() {
	if m != nil {
		m.Burns.Inc()
	}
}

func (m *Metrics) IncClawbacks() {
	if m != nil {
		m.Clawbacks.Inc()
	}
}

func (m *Metrics) IncUnitsCommitted() {
	if m != nil {
		m.UnitsCommitted.Inc()
	}
}

func (m *Metrics) IncUnitsAborted() {
	if m != nil {
		m.UnitsAborted.Inc()
	}
}
