package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GeocodesTotal        *prometheus.CounterVec
	TerritoryChecksTotal *prometheus.CounterVec
	TerritorySavesTotal  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		GeocodesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicepoint_geocodes_total",
			Help: "Geocode lookups by coordinate source",
		}, []string{"source"}),
		TerritoryChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicepoint_territory_checks_total",
			Help: "Territory checks by outcome",
		}, []string{"result"}),
		TerritorySavesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "servicepoint_territory_saves_total",
			Help: "Territory collection writes",
		}),
	}
}

// IncGeocode records one geocode by source: validation, cache, provider, or
// none.
func (m *Metrics) IncGeocode(source string) {
	m.GeocodesTotal.WithLabelValues(source).Inc()
}

// IncTerritoryCheck records one check by result: match or no_match.
func (m *Metrics) IncTerritoryCheck(result string) {
	m.TerritoryChecksTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncTerritorySave() {
	m.TerritorySavesTotal.Inc()
}
