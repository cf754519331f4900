package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the registry.
type Metrics struct {
	EligibilityChecks *prometheus.CounterVec
	Mutations         *prometheus.CounterVec
	AttestationsIssued prometheus.Counter
}

// NewMetrics creates all registry metrics against the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EligibilityChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safestake_eligibility_checks_total",
			Help: "Eligibility evaluations by resulting status",
		}, []string{"status"}),
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safestake_mutations_total",
			Help: "Registry mutations by operation and outcome",
		}, []string{"operation", "outcome"}),
		AttestationsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "safestake_attestations_issued_total",
			Help: "Age attestations issued by the relay",
		}),
	}
}

// ObserveCheck records an eligibility evaluation outcome.
func (m *Metrics) ObserveCheck(status string) {
	m.EligibilityChecks.WithLabelValues(status).Inc()
}

// ObserveMutation records a mutation attempt outcome ("ok" or the error code).
func (m *Metrics) ObserveMutation(operation, outcome string) {
	m.Mutations.WithLabelValues(operation, outcome).Inc()
}
