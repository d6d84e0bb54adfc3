// Package metrics exposes the protocol's Prometheus counters and
// gauges: a Metrics struct of collectors registered by New against the
// Registerer the caller passes in, plus thin increment/set methods, so
// callers never touch the prometheus API directly.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "bitvm"

// Metrics holds every collector this repo reports. The zero value is
// not usable; construct with New.
type Metrics struct {
	RoundsIssued    prometheus.Counter
	RoundsAnswered  prometheus.Counter
	Contradictions  prometheus.Counter
	BondSatoshis    prometheus.Gauge
	RPCErrorsByCall *prometheus.CounterVec
}

// New builds and registers every collector against reg. Pass
// prometheus.DefaultRegisterer for the process-wide default registry
// (what promhttp.Handler() serves), or a fresh prometheus.NewRegistry()
// in tests to avoid collisions across test runs.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoundsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_issued_total",
			Help:      "Total number of challenge rounds issued by a Verifier.",
		}),
		RoundsAnswered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_answered_total",
			Help:      "Total number of challenge rounds answered by a Prover.",
		}),
		Contradictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contradictions_total",
			Help:      "Total number of equivocations claimed against a Prover.",
		}),
		BondSatoshis: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bond_satoshis",
			Help:      "Current value of the Prover's bond output, in satoshis.",
		}),
		RPCErrorsByCall: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_errors_total",
			Help:      "Total LedgerClient RPC errors, by method.",
		}, []string{"method"}),
	}
	reg.MustRegister(m.RoundsIssued, m.RoundsAnswered, m.Contradictions, m.BondSatoshis, m.RPCErrorsByCall)
	return m
}

// RecordRPCError increments the error counter for the given RPC method
// name (e.g. "sendrawtransaction", "generatetoaddress").
func (m *Metrics) RecordRPCError(method string) {
	m.RPCErrorsByCall.WithLabelValues(method).Inc()
}
