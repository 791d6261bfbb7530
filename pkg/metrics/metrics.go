// Package metrics exposes Prometheus counters for the sharing traffic
// between portfolio solvers. The counters are observational only; no
// sharing decision reads them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SharedClauses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parsat_shared_clauses_total",
		Help: "Learned clauses accepted for broadcast.",
	})

	RejectedClauses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parsat_rejected_clauses_total",
		Help: "Learned clauses rejected by the sharing heuristic.",
	})

	RetrievedClauses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parsat_retrieved_clauses_total",
		Help: "Foreign clauses drained from the broadcast pool.",
	})

	ExchangedUnits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parsat_exchanged_units_total",
		Help: "Distinct unit literals entered into the exchange log.",
	})
)

// Register installs all sharing counters on r.
func Register(r prometheus.Registerer) {
	r.MustRegister(
		SharedClauses,
		RejectedClauses,
		RetrievedClauses,
		ExchangedUnits,
	)
}
