package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CircuitOpenedTotal     *prometheus.CounterVec
	RateLimitRejectedTotal *prometheus.CounterVec
	ProviderFailuresTotal  *prometheus.CounterVec
	GuardedCallsTotal      *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		CircuitOpenedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicepoint_circuit_opened_total",
			Help: "Total number of circuit breaker openings per provider",
		}, []string{"provider"}),
		RateLimitRejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicepoint_ratelimit_rejected_total",
			Help: "Total number of outbound calls rejected by the rate limiter",
		}, []string{"provider"}),
		ProviderFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicepoint_provider_failures_total",
			Help: "Total number of provider call failures recorded",
		}, []string{"provider"}),
		GuardedCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicepoint_guarded_calls_total",
			Help: "Total guarded provider calls by outcome",
		}, []string{"provider", "outcome"}),
	}
}

func (m *Metrics) IncCircuitOpened(provider string) {
	m.CircuitOpenedTotal.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncRateLimitRejected(provider string) {
	m.RateLimitRejectedTotal.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncProviderFailure(provider string) {
	m.ProviderFailuresTotal.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncGuardedCall(provider, outcome string) {
	m.GuardedCallsTotal.WithLabelValues(provider, outcome).Inc()
}
