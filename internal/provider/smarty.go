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
	smartyStreetBaseURL       = "https://us-street.api.smarty.com"
	smartyAutocompleteBaseURL = "https://us-autocomplete-pro.api.smarty.com"
)

// SmartyClient adapts the SmartyStreets street-address and autocomplete
// APIs. SmartyStreets suggestions carry no place id; the suggestion itself
// is the full address.
type SmartyClient struct {
	authID         string
	authToken      string
	http           *http.Client
	streetBaseURL  string
	suggestBaseURL string
}

// NewSmartyClient creates a SmartyStreets adapter.
func NewSmartyClient(authID, authToken string, httpClient *http.Client) *SmartyClient {
	return &SmartyClient{
		authID:         authID,
		authToken:      authToken,
		http:           httpClient,
		streetBaseURL:  smartyStreetBaseURL,
		suggestBaseURL: smartyAutocompleteBaseURL,
	}
}

func (c *SmartyClient) Name() string     { return "smartystreets" }
func (c *SmartyClient) Configured() bool { return c.authID != "" && c.authToken != "" }

type smartyCandidate struct {
	DeliveryLine1 string `json:"delivery_line_1"`
	DeliveryLine2 string `json:"delivery_line_2"`
	LastLine      string `json:"last_line"`
	Components    struct {
		CityName          string `json:"city_name"`
		StateAbbreviation string `json:"state_abbreviation"`
		Zipcode           string `json:"zipcode"`
		Plus4Code         string `json:"plus4_code"`
	} `json:"components"`
	Metadata struct {
		Latitude     float64 `json:"latitude"`
		Longitude    float64 `json:"longitude"`
		CarrierRoute string  `json:"carrier_route"`
		Precision    string  `json:"precision"`
	} `json:"metadata"`
	Analysis struct {
		DPVMatchCode string `json:"dpv_match_code"`
	} `json:"analysis"`
}

func (c *SmartyClient) auth(q url.Values) {
	q.Set("auth-id", c.authID)
	q.Set("auth-token", c.authToken)
}

// Validate looks the address up against the street-address API. An empty
// candidate list is a business rejection; validity requires a DPV match code
// of Y, S, or D, with S and D additionally flagged as secondary issues.
func (c *SmartyClient) Validate(ctx context.Context, addr address.Address) (*address.ValidationResult, error) {
	q := url.Values{}
	c.auth(q)
	q.Set("street", addr.Street)
	if addr.Street2 != "" {
		q.Set("secondary", addr.Street2)
	}
	q.Set("city", addr.City)
	q.Set("state", addr.State)
	q.Set("zipcode", addr.Zip)
	q.Set("candidates", "5")

	var candidates []smartyCandidate
	if err := c.get(ctx, c.streetBaseURL+"/street-address?"+q.Encode(), &candidates); err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return &address.ValidationResult{
			Valid:        false,
			Standardized: addr,
			Issues:       []string{"Address not found"},
		}, nil
	}

	best := candidates[0]
	standardized := candidateToAddress(best)
	dpv := best.Analysis.DPVMatchCode

	result := &address.ValidationResult{
		Valid:        dpv == "Y" || dpv == "S" || dpv == "D",
		Standardized: standardized,
		DPVCode:      dpv,
		CarrierRoute: best.Metadata.CarrierRoute,
		Precision:    best.Metadata.Precision,
	}
	if result.Standardized.IsEmpty() {
		result.Standardized = addr
	}
	if best.Metadata.Latitude != 0 || best.Metadata.Longitude != 0 {
		result.Coordinates = &address.GeocodeResult{
			Latitude:  best.Metadata.Latitude,
			Longitude: best.Metadata.Longitude,
		}
	}
	if issue := dpvIssue(dpv); issue != "" && dpv != "N" {
		result.Issues = append(result.Issues, issue)
	}
	if dpv != "Y" && dpv != "S" && dpv != "D" {
		result.Issues = append(result.Issues, "Address could not be confirmed as deliverable")
	}
	for _, cand := range candidates[1:] {
		result.Suggestions = append(result.Suggestions, candidateToAddress(cand))
	}
	return result, nil
}

type smartySuggestResponse struct {
	Suggestions []struct {
		StreetLine string `json:"street_line"`
		Secondary  string `json:"secondary"`
		City       string `json:"city"`
		State      string `json:"state"`
		Zipcode    string `json:"zipcode"`
	} `json:"suggestions"`
}

func (c *SmartyClient) Autocomplete(ctx context.Context, input, sessionToken string) ([]address.Prediction, error) {
	q := url.Values{}
	c.auth(q)
	q.Set("search", input)

	var resp smartySuggestResponse
	if err := c.get(ctx, c.suggestBaseURL+"/lookup?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	predictions := make([]address.Prediction, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		main := s.StreetLine
		if s.Secondary != "" {
			main = main + " " + s.Secondary
		}
		secondary := fmt.Sprintf("%s, %s %s", s.City, s.State, s.Zipcode)
		predictions = append(predictions, address.Prediction{
			Description:   main + ", " + secondary,
			MainText:      main,
			SecondaryText: secondary,
		})
	}
	return predictions, nil
}

func (c *SmartyClient) PlaceDetails(ctx context.Context, placeID, sessionToken string) (*address.Address, error) {
	return nil, ErrUnsupported
}

// Geocode rides on the street-address lookup, which returns coordinates in
// candidate metadata.
func (c *SmartyClient) Geocode(ctx context.Context, addr address.Address) (*address.GeocodeResult, error) {
	result, err := c.Validate(ctx, addr)
	if err != nil {
		return nil, err
	}
	if result.Coordinates == nil {
		return nil, nil
	}
	formatted := result.Standardized.SingleLine()
	return &address.GeocodeResult{
		Latitude:         result.Coordinates.Latitude,
		Longitude:        result.Coordinates.Longitude,
		FormattedAddress: formatted,
	}, nil
}

func (c *SmartyClient) ReverseZip(ctx context.Context, lat, lng float64) (string, error) {
	return "", ErrUnsupported
}

func (c *SmartyClient) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("smartystreets request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("smartystreets returned HTTP %d", resp.StatusCode)
	}
	return decodeJSON(resp.Body, out)
}

func candidateToAddress(c smartyCandidate) address.Address {
	zip := c.Components.Zipcode
	if zip != "" && c.Components.Plus4Code != "" {
		zip = zip + "-" + c.Components.Plus4Code
	}
	return address.Address{
		Street:  strings.TrimSpace(c.DeliveryLine1),
		Street2: strings.TrimSpace(c.DeliveryLine2),
		City:    c.Components.CityName,
		State:   c.Components.StateAbbreviation,
		Zip:     zip,
	}
}
