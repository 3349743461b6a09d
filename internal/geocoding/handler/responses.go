package handler

import (
	"github.com/peanutgraphic/servicepoint/internal/geocoding"
)

// GeocodeResponse is the HTTP response for POST /geocode.
type GeocodeResponse struct {
	Success          bool    `json:"success"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
}

// TerritoryCheckResponse is the HTTP response for POST /territory/check.
type TerritoryCheckResponse struct {
	Success     bool                     `json:"success"`
	InTerritory bool                     `json:"in_territory"`
	Matches     []geocoding.TerritoryRef `json:"matching_territories"`
	Latitude    float64                  `json:"latitude"`
	Longitude   float64                  `json:"longitude"`
}

// HealthResponse is the HTTP response for GET /health.
type HealthResponse struct {
	Healthy   bool                                `json:"healthy"`
	Providers map[string]geocoding.ProviderHealth `json:"providers"`
}

// TerritoriesResponse is the HTTP response for GET /territories.
type TerritoriesResponse struct {
	Territories []geocoding.Territory `json:"territories"`
}

// SaveTerritoryResponse is the HTTP response for POST /territory.
type SaveTerritoryResponse struct {
	ID string `json:"id"`
}
