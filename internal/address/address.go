// Package address holds the domain types shared by the validation and
// geocoding services.
package address

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Address is a US postal address. Raw user input is never mutated in place;
// standardization produces a new copy.
type Address struct {
	Street  string `json:"street"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"` // 2-letter code
	Zip     string `json:"zip"`   // 5 or 5+4
}

// IsEmpty reports whether the address carries no usable fields.
func (a Address) IsEmpty() bool {
	return strings.TrimSpace(a.Street) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.State) == "" &&
		strings.TrimSpace(a.Zip) == ""
}

// SingleLine renders the address as one comma-separated line for geocoding
// queries.
func (a Address) SingleLine() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.Street2, a.City, a.State, a.Zip} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// CacheKey derives a stable, case-insensitive key from the address fields.
// Field order is fixed so equivalent inputs always hash identically.
func (a Address) CacheKey() string {
	joined := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(a.Street),
		strings.TrimSpace(a.Street2),
		strings.TrimSpace(a.City),
		strings.TrimSpace(a.State),
		strings.TrimSpace(a.Zip),
	}, "|"))
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// GeocodeResult is a coordinate pair with an optional formatted address.
// Both coordinates are always present together; a partial pair is never
// produced, the result is absent instead.
type GeocodeResult struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
}

// ValidationResult is the outcome of validating one address.
// Standardized is always populated, falling back to the original input when
// the provider yields nothing, even when Valid is false.
type ValidationResult struct {
	Valid        bool           `json:"valid"`
	Standardized Address        `json:"standardized"`
	Issues       []string       `json:"issues,omitempty"`
	Suggestions  []Address      `json:"suggestions,omitempty"`
	Coordinates  *GeocodeResult `json:"coordinates,omitempty"`

	// Provider-specific fields.
	DPVCode      string `json:"dpv_code,omitempty"`
	CarrierRoute string `json:"carrier_route,omitempty"`
	Precision    string `json:"precision,omitempty"`
}

// Prediction is one autocomplete suggestion. PlaceID is absent for providers
// with no place-detail concept.
type Prediction struct {
	PlaceID       string `json:"place_id,omitempty"`
	Description   string `json:"description"`
	MainText      string `json:"main_text"`
	SecondaryText string `json:"secondary_text,omitempty"`
}
