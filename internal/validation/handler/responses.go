package handler

import (
	"github.com/peanutgraphic/servicepoint/internal/address"
)

// ValidateResponse is the HTTP response for POST /address/validate.
type ValidateResponse struct {
	Valid        bool                 `json:"valid"`
	Standardized AddressResponse      `json:"standardized"`
	Issues       []string             `json:"issues,omitempty"`
	Suggestions  []AddressResponse    `json:"suggestions,omitempty"`
	Coordinates  *CoordinatesResponse `json:"coordinates,omitempty"`
	DPVCode      string               `json:"dpv_code,omitempty"`
	CarrierRoute string               `json:"carrier_route,omitempty"`
	Precision    string               `json:"precision,omitempty"`
}

// AddressResponse is the JSON shape of a postal address.
type AddressResponse struct {
	Street  string `json:"street"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// CoordinatesResponse carries a geocoded point.
type CoordinatesResponse struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
}

// AutocompleteResponse is the HTTP response for GET /address/autocomplete.
type AutocompleteResponse struct {
	Predictions []PredictionResponse `json:"predictions"`
}

// PredictionResponse is one autocomplete suggestion.
type PredictionResponse struct {
	PlaceID       string `json:"place_id,omitempty"`
	Description   string `json:"description"`
	MainText      string `json:"main_text,omitempty"`
	SecondaryText string `json:"secondary_text,omitempty"`
}

// FromValidationResult converts a domain validation result to an HTTP
// response.
func FromValidationResult(result address.ValidationResult) ValidateResponse {
	resp := ValidateResponse{
		Valid:        result.Valid,
		Standardized: fromAddress(result.Standardized),
		Issues:       result.Issues,
		DPVCode:      result.DPVCode,
		CarrierRoute: result.CarrierRoute,
		Precision:    result.Precision,
	}
	for _, s := range result.Suggestions {
		resp.Suggestions = append(resp.Suggestions, fromAddress(s))
	}
	if result.Coordinates != nil {
		resp.Coordinates = &CoordinatesResponse{
			Latitude:         result.Coordinates.Latitude,
			Longitude:        result.Coordinates.Longitude,
			FormattedAddress: result.Coordinates.FormattedAddress,
		}
	}
	return resp
}

func fromAddress(a address.Address) AddressResponse {
	return AddressResponse{
		Street:  a.Street,
		Street2: a.Street2,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
	}
}

func fromPredictions(predictions []address.Prediction) []PredictionResponse {
	out := make([]PredictionResponse, 0, len(predictions))
	for _, p := range predictions {
		out = append(out, PredictionResponse{
			PlaceID:       p.PlaceID,
			Description:   p.Description,
			MainText:      p.MainText,
			SecondaryText: p.SecondaryText,
		})
	}
	return out
}
