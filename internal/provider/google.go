package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/peanutgraphic/servicepoint/internal/address"
)

const (
	googlePlacesBaseURL  = "https://maps.googleapis.com/maps/api/place"
	googleGeocodeBaseURL = "https://maps.googleapis.com/maps/api/geocode"
)

// Google response statuses that indicate a server-side problem rather than a
// business outcome. These count against the circuit breaker.
const (
	googleStatusOK          = "OK"
	googleStatusZeroResults = "ZERO_RESULTS"
)

// GoogleClient adapts the Places Autocomplete/Details and Geocoding APIs.
// Validation goes through the Geocoding endpoint; Google has no dedicated
// address-validate call in this integration.
type GoogleClient struct {
	apiKey         string
	http           *http.Client
	placesBaseURL  string
	geocodeBaseURL string
}

// NewGoogleClient creates a Google adapter.
func NewGoogleClient(apiKey string, httpClient *http.Client) *GoogleClient {
	return &GoogleClient{
		apiKey:         apiKey,
		http:           httpClient,
		placesBaseURL:  googlePlacesBaseURL,
		geocodeBaseURL: googleGeocodeBaseURL,
	}
}

func (c *GoogleClient) Name() string     { return "google" }
func (c *GoogleClient) Configured() bool { return c.apiKey != "" }

type googleAutocompleteResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Predictions  []struct {
		PlaceID              string `json:"place_id"`
		Description          string `json:"description"`
		StructuredFormatting struct {
			MainText      string `json:"main_text"`
			SecondaryText string `json:"secondary_text"`
		} `json:"structured_formatting"`
	} `json:"predictions"`
}

func (c *GoogleClient) Autocomplete(ctx context.Context, input, sessionToken string) ([]address.Prediction, error) {
	q := url.Values{}
	q.Set("input", input)
	q.Set("types", "address")
	q.Set("components", "country:us")
	q.Set("key", c.apiKey)
	if sessionToken != "" {
		q.Set("sessiontoken", sessionToken)
	}

	var resp googleAutocompleteResponse
	if err := c.get(ctx, c.placesBaseURL+"/autocomplete/json?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if err := googleStatusError(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	predictions := make([]address.Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		predictions = append(predictions, address.Prediction{
			PlaceID:       p.PlaceID,
			Description:   p.Description,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}
	return predictions, nil
}

type googleAddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type googleDetailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		AddressComponents []googleAddressComponent `json:"address_components"`
	} `json:"result"`
}

func (c *GoogleClient) PlaceDetails(ctx context.Context, placeID, sessionToken string) (*address.Address, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "address_component")
	q.Set("key", c.apiKey)
	if sessionToken != "" {
		q.Set("sessiontoken", sessionToken)
	}

	var resp googleDetailsResponse
	if err := c.get(ctx, c.placesBaseURL+"/details/json?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status == googleStatusZeroResults || resp.Status == "NOT_FOUND" {
		return nil, nil
	}
	if err := googleStatusError(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	addr := componentsToAddress(resp.Result.AddressComponents)
	return &addr, nil
}

type googleGeocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		AddressComponents []googleAddressComponent `json:"address_components"`
		FormattedAddress  string                   `json:"formatted_address"`
		PartialMatch      bool                     `json:"partial_match"`
		Geometry          struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
	} `json:"results"`
}

func (c *GoogleClient) geocodeQuery(ctx context.Context, q url.Values) (*googleGeocodeResponse, error) {
	q.Set("key", c.apiKey)
	var resp googleGeocodeResponse
	if err := c.get(ctx, c.geocodeBaseURL+"/json?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status == googleStatusZeroResults {
		return &resp, nil
	}
	if err := googleStatusError(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Validate geocodes the address and derives validity from the outcome. Zero
// results is a business rejection, not a provider failure.
func (c *GoogleClient) Validate(ctx context.Context, addr address.Address) (*address.ValidationResult, error) {
	q := url.Values{}
	q.Set("address", addr.SingleLine())
	resp, err := c.geocodeQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return &address.ValidationResult{
			Valid:        false,
			Standardized: addr,
			Issues:       []string{"Address not found"},
		}, nil
	}

	best := resp.Results[0]
	result := &address.ValidationResult{
		Valid:        true,
		Standardized: componentsToAddress(best.AddressComponents),
		Coordinates: &address.GeocodeResult{
			Latitude:         best.Geometry.Location.Lat,
			Longitude:        best.Geometry.Location.Lng,
			FormattedAddress: best.FormattedAddress,
		},
		Precision: best.Geometry.LocationType,
	}
	if result.Standardized.IsEmpty() {
		result.Standardized = addr
	}
	if best.PartialMatch {
		result.Issues = append(result.Issues, "Partial match")
	}
	if best.Geometry.LocationType == "APPROXIMATE" {
		result.Issues = append(result.Issues, "Approximate location")
	}
	return result, nil
}

func (c *GoogleClient) Geocode(ctx context.Context, addr address.Address) (*address.GeocodeResult, error) {
	q := url.Values{}
	q.Set("address", addr.SingleLine())
	resp, err := c.geocodeQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	best := resp.Results[0]
	return &address.GeocodeResult{
		Latitude:         best.Geometry.Location.Lat,
		Longitude:        best.Geometry.Location.Lng,
		FormattedAddress: best.FormattedAddress,
	}, nil
}

func (c *GoogleClient) ReverseZip(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("result_type", "postal_code")
	resp, err := c.geocodeQuery(ctx, q)
	if err != nil {
		return "", err
	}
	for _, r := range resp.Results {
		for _, comp := range r.AddressComponents {
			if hasType(comp.Types, "postal_code") {
				return comp.ShortName, nil
			}
		}
	}
	return "", nil
}

func (c *GoogleClient) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("google request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google returned HTTP %d", resp.StatusCode)
	}
	return decodeJSON(resp.Body, out)
}

// googleStatusError distinguishes server-side rejections from business
// outcomes. OVER_QUERY_LIMIT, REQUEST_DENIED and UNKNOWN_ERROR are provider
// failures; OK and ZERO_RESULTS are not.
func googleStatusError(status, errorMessage string) error {
	switch status {
	case googleStatusOK, googleStatusZeroResults:
		return nil
	default:
		if errorMessage != "" {
			return fmt.Errorf("google status %s: %s", status, errorMessage)
		}
		return fmt.Errorf("google status %s", status)
	}
}

// componentsToAddress maps typed address components into the domain address.
func componentsToAddress(components []googleAddressComponent) address.Address {
	var streetNumber, route, subpremise, city, state, zip, zipSuffix string
	for _, comp := range components {
		switch {
		case hasType(comp.Types, "street_number"):
			streetNumber = comp.LongName
		case hasType(comp.Types, "route"):
			route = comp.ShortName
		case hasType(comp.Types, "subpremise"):
			subpremise = comp.LongName
		case hasType(comp.Types, "locality"), hasType(comp.Types, "postal_town"):
			city = comp.LongName
		case hasType(comp.Types, "sublocality"):
			if city == "" {
				city = comp.LongName
			}
		case hasType(comp.Types, "administrative_area_level_1"):
			state = comp.ShortName
		case hasType(comp.Types, "postal_code"):
			zip = comp.ShortName
		case hasType(comp.Types, "postal_code_suffix"):
			zipSuffix = comp.ShortName
		}
	}

	street := strings.TrimSpace(streetNumber + " " + route)
	if zip != "" && zipSuffix != "" {
		zip = zip + "-" + zipSuffix
	}
	return address.Address{
		Street:  street,
		Street2: subpremise,
		City:    city,
		State:   state,
		Zip:     zip,
	}
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
