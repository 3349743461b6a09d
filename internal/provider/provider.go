// Package provider contains the thin HTTP adapters for the external address
// providers. Each adapter translates provider-specific request and response
// shapes into the shared domain types.
//
// Adapters return explicit results: business outcomes (address not found,
// zero results) are values, transport failures (network errors, non-OK
// statuses, server-side rejections) are errors. The resilience guard
// pattern-matches on that split: only errors count against the circuit
// breaker.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/peanutgraphic/servicepoint/internal/address"
	"github.com/peanutgraphic/servicepoint/internal/platform/config"
)

// ErrUnsupported marks an operation a provider has no equivalent for, such
// as autocomplete on USPS. Callers treat it as an empty business outcome,
// never as a provider failure.
var ErrUnsupported = errors.New("operation not supported by provider")

// Client is implemented once per provider. New providers implement this
// interface; nothing switches on provider names outside the factory.
type Client interface {
	// Name identifies the provider in guard keys, logs, and metrics.
	Name() string

	// Configured reports whether the credentials needed for real calls are
	// present. Unconfigured providers short-circuit to permissive fallbacks
	// without touching the network or the circuit breaker.
	Configured() bool

	// Autocomplete returns suggestions for a partial address input.
	Autocomplete(ctx context.Context, input, sessionToken string) ([]address.Prediction, error)

	// Validate standardizes and verifies a full address.
	Validate(ctx context.Context, addr address.Address) (*address.ValidationResult, error)

	// PlaceDetails resolves an autocomplete place id to a full address.
	// Returns (nil, nil) when the id resolves to nothing.
	PlaceDetails(ctx context.Context, placeID, sessionToken string) (*address.Address, error)

	// Geocode resolves an address to coordinates. Returns (nil, nil) on
	// zero results.
	Geocode(ctx context.Context, addr address.Address) (*address.GeocodeResult, error)

	// ReverseZip resolves coordinates to a ZIP code. Returns ("", nil) when
	// the point has no postal code.
	ReverseZip(ctx context.Context, lat, lng float64) (string, error)
}

// New builds the configured provider client. Returns (nil, nil) for "none";
// downstream services treat a nil client as the permissive default.
func New(cfg config.ProviderConfig) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	switch cfg.Name {
	case "", "none":
		return nil, nil
	case "google":
		return NewGoogleClient(cfg.GoogleAPIKey, httpClient), nil
	case "usps":
		return NewUSPSClient(cfg.USPSUserID, httpClient), nil
	case "smartystreets":
		return NewSmartyClient(cfg.SmartyAuthID, cfg.SmartyAuthToken, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}
