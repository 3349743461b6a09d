package handler

import (
	"strings"

	"github.com/peanutgraphic/servicepoint/internal/address"
	dErrors "github.com/peanutgraphic/servicepoint/pkg/domain-errors"
)

// AddressRequest is the HTTP request body for POST /geocode.
type AddressRequest struct {
	Street  string `json:"street"`
	Street2 string `json:"street2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// Validate requires enough of an address to attempt a geocode.
func (r *AddressRequest) Validate() error {
	r.trim()
	if r.ToAddress().IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "an address is required")
	}
	return nil
}

func (r *AddressRequest) trim() {
	r.Street = strings.TrimSpace(r.Street)
	r.Street2 = strings.TrimSpace(r.Street2)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	r.Zip = strings.TrimSpace(r.Zip)
}

// ToAddress converts the request to the domain address type.
func (r *AddressRequest) ToAddress() address.Address {
	return address.Address{
		Street:  r.Street,
		Street2: r.Street2,
		City:    r.City,
		State:   r.State,
		Zip:     r.Zip,
	}
}

// TerritoryCheckRequest is the HTTP request body for POST /territory/check.
// The caller supplies either a coordinate pair or an address; coordinates
// win when both are present.
type TerritoryCheckRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Utility   string   `json:"utility"`
}

// Validate requires coordinates or an address. A lone latitude or longitude
// is rejected; partial pairs are never accepted.
func (r *TerritoryCheckRequest) Validate() error {
	r.Street = strings.TrimSpace(r.Street)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	r.Zip = strings.TrimSpace(r.Zip)
	r.Utility = strings.TrimSpace(r.Utility)

	if (r.Latitude == nil) != (r.Longitude == nil) {
		return dErrors.New(dErrors.CodeValidation, "latitude and longitude must be supplied together")
	}
	if r.Latitude == nil && r.ToAddress().IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "coordinates or an address are required")
	}
	return nil
}

// Coordinates returns the supplied coordinate pair, if any.
func (r *TerritoryCheckRequest) Coordinates() (lat, lng float64, ok bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return 0, 0, false
	}
	return *r.Latitude, *r.Longitude, true
}

// ToAddress converts the request's address fields to the domain type.
func (r *TerritoryCheckRequest) ToAddress() address.Address {
	return address.Address{Street: r.Street, City: r.City, State: r.State, Zip: r.Zip}
}

// ServiceAddressRequest is the HTTP request body for
// POST /service-address/validate.
type ServiceAddressRequest struct {
	Street  string `json:"street"`
	Street2 string `json:"street2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Utility string `json:"utility"`
}

// Validate requires a usable address.
func (r *ServiceAddressRequest) Validate() error {
	r.Street = strings.TrimSpace(r.Street)
	r.Street2 = strings.TrimSpace(r.Street2)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	r.Zip = strings.TrimSpace(r.Zip)
	r.Utility = strings.TrimSpace(r.Utility)

	if r.ToAddress().IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "an address is required")
	}
	return nil
}

// ToAddress converts the request to the domain address type.
func (r *ServiceAddressRequest) ToAddress() address.Address {
	return address.Address{
		Street:  r.Street,
		Street2: r.Street2,
		City:    r.City,
		State:   r.State,
		Zip:     r.Zip,
	}
}
