package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/peanutgraphic/servicepoint/internal/address"
)

const uspsBaseURL = "https://secure.shippingapis.com/ShippingAPI.dll"

// USPSClient adapts the USPS Address Validation XML API. USPS has no
// autocomplete, place-detail, or geocoding concept; those operations report
// ErrUnsupported.
//
// Wire quirk preserved from the API: Address1 is the secondary line
// (apartment, suite) and Address2 is the primary street.
type USPSClient struct {
	userID  string
	http    *http.Client
	baseURL string
}

// NewUSPSClient creates a USPS adapter.
func NewUSPSClient(userID string, httpClient *http.Client) *USPSClient {
	return &USPSClient{userID: userID, http: httpClient, baseURL: uspsBaseURL}
}

func (c *USPSClient) Name() string     { return "usps" }
func (c *USPSClient) Configured() bool { return c.userID != "" }

func (c *USPSClient) Autocomplete(ctx context.Context, input, sessionToken string) ([]address.Prediction, error) {
	return nil, ErrUnsupported
}

func (c *USPSClient) PlaceDetails(ctx context.Context, placeID, sessionToken string) (*address.Address, error) {
	return nil, ErrUnsupported
}

func (c *USPSClient) Geocode(ctx context.Context, addr address.Address) (*address.GeocodeResult, error) {
	return nil, ErrUnsupported
}

func (c *USPSClient) ReverseZip(ctx context.Context, lat, lng float64) (string, error) {
	return "", ErrUnsupported
}

type uspsValidateRequest struct {
	XMLName  xml.Name        `xml:"AddressValidateRequest"`
	UserID   string          `xml:"USERID,attr"`
	Revision int             `xml:"Revision"`
	Address  uspsAddressNode `xml:"Address"`
}

type uspsAddressNode struct {
	ID       string `xml:"ID,attr"`
	Address1 string `xml:"Address1"`
	Address2 string `xml:"Address2"`
	City     string `xml:"City"`
	State    string `xml:"State"`
	Zip5     string `xml:"Zip5"`
	Zip4     string `xml:"Zip4"`
}

type uspsValidateResponse struct {
	XMLName xml.Name `xml:"AddressValidateResponse"`
	Address struct {
		Address1        string `xml:"Address1"`
		Address2        string `xml:"Address2"`
		City            string `xml:"City"`
		State           string `xml:"State"`
		Zip5            string `xml:"Zip5"`
		Zip4            string `xml:"Zip4"`
		DPVConfirmation string `xml:"DPVConfirmation"`
		CarrierRoute    string `xml:"CarrierRoute"`
		Error           *uspsError
	} `xml:"Address"`
}

type uspsError struct {
	XMLName     xml.Name `xml:"Error"`
	Description string   `xml:"Description"`
}

// Validate submits the address to the Verify API and maps the DPV
// confirmation code onto issue strings: N means the address is not in the
// USPS database, S a missing secondary, D an incorrect secondary.
func (c *USPSClient) Validate(ctx context.Context, addr address.Address) (*address.ValidationResult, error) {
	payload, err := xml.Marshal(uspsValidateRequest{
		UserID:   c.userID,
		Revision: 1,
		Address: uspsAddressNode{
			ID:       "0",
			Address1: addr.Street2,
			Address2: addr.Street,
			City:     addr.City,
			State:    addr.State,
			Zip5:     zip5(addr.Zip),
			Zip4:     zip4(addr.Zip),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build usps request: %w", err)
	}

	q := url.Values{}
	q.Set("API", "Verify")
	q.Set("XML", string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usps request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usps returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read usps response: %w", err)
	}

	// A top-level Error element means the request itself was rejected
	// (bad credentials, malformed XML). That is a provider failure.
	var topErr uspsError
	if err := xml.Unmarshal(body, &topErr); err == nil && topErr.Description != "" {
		return nil, fmt.Errorf("usps error: %s", topErr.Description)
	}

	var parsed uspsValidateResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode usps response: %w", err)
	}

	// Address-level error is a business rejection: the address could not be
	// matched at all.
	if parsed.Address.Error != nil {
		issue := strings.TrimSpace(parsed.Address.Error.Description)
		if issue == "" {
			issue = "Address not found in database"
		}
		return &address.ValidationResult{
			Valid:        false,
			Standardized: addr,
			Issues:       []string{issue},
		}, nil
	}

	if parsed.Address.Address2 == "" && parsed.Address.City == "" && parsed.Address.Zip5 == "" {
		return &address.ValidationResult{
			Valid:        false,
			Standardized: addr,
			Issues:       []string{"Address not found in database"},
		}, nil
	}

	standardized := address.Address{
		Street:  parsed.Address.Address2,
		Street2: parsed.Address.Address1,
		City:    parsed.Address.City,
		State:   parsed.Address.State,
		Zip:     joinZip(parsed.Address.Zip5, parsed.Address.Zip4),
	}

	result := &address.ValidationResult{
		Valid:        true,
		Standardized: standardized,
		DPVCode:      parsed.Address.DPVConfirmation,
		CarrierRoute: parsed.Address.CarrierRoute,
	}
	if issue := dpvIssue(parsed.Address.DPVConfirmation); issue != "" {
		result.Issues = append(result.Issues, issue)
	}
	return result, nil
}

// dpvIssue maps a delivery-point-verification code to an issue string.
// Codes other than N, S, and D (including absent) carry no issue.
func dpvIssue(code string) string {
	switch code {
	case "N":
		return "Address not found in database"
	case "S":
		return "Secondary address missing"
	case "D":
		return "Secondary address incorrect"
	default:
		return ""
	}
}

func zip5(zip string) string {
	zip = strings.TrimSpace(zip)
	if i := strings.IndexByte(zip, '-'); i >= 0 {
		return zip[:i]
	}
	if len(zip) > 5 {
		return zip[:5]
	}
	return zip
}

func zip4(zip string) string {
	zip = strings.TrimSpace(zip)
	if i := strings.IndexByte(zip, '-'); i >= 0 && len(zip) > i+1 {
		return zip[i+1:]
	}
	return ""
}

func joinZip(z5, z4 string) string {
	if z5 == "" {
		return ""
	}
	if z4 == "" {
		return z5
	}
	return z5 + "-" + z4
}
