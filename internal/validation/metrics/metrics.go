package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ValidationsTotal   *prometheus.CounterVec
	AutocompleteTotal  prometheus.Counter
	ValidationDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicepoint_validations_total",
			Help: "Address validations by result source",
		}, []string{"source"}),
		AutocompleteTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "servicepoint_autocomplete_requests_total",
			Help: "Autocomplete prediction requests served",
		}),
		ValidationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "servicepoint_validation_duration_seconds",
			Help:    "Latency of validate_address calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncValidation records one validation by source: cache, provider,
// permissive, or fallback.
func (m *Metrics) IncValidation(source string) {
	m.ValidationsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) IncAutocomplete() {
	m.AutocompleteTotal.Inc()
}

func (m *Metrics) ObserveValidationDuration(seconds float64) {
	m.ValidationDuration.Observe(seconds)
}
