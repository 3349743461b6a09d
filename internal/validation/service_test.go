package validation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peanutgraphic/servicepoint/internal/address"
	"github.com/peanutgraphic/servicepoint/internal/platform/kvstore"
	"github.com/peanutgraphic/servicepoint/internal/provider"
	"github.com/peanutgraphic/servicepoint/internal/resilience"
)

// fakeProvider is a scriptable provider.Client.
type fakeProvider struct {
	name           string
	configured     bool
	validateCalls  atomic.Int64
	validateFn     func(addr address.Address) (*address.ValidationResult, error)
	autocompleteFn func(input string) ([]address.Prediction, error)
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Validate(_ context.Context, addr address.Address) (*address.ValidationResult, error) {
	f.validateCalls.Add(1)
	return f.validateFn(addr)
}

func (f *fakeProvider) Autocomplete(_ context.Context, input, _ string) ([]address.Prediction, error) {
	if f.autocompleteFn == nil {
		return nil, provider.ErrUnsupported
	}
	return f.autocompleteFn(input)
}

func (f *fakeProvider) PlaceDetails(context.Context, string, string) (*address.Address, error) {
	return nil, provider.ErrUnsupported
}

func (f *fakeProvider) Geocode(context.Context, address.Address) (*address.GeocodeResult, error) {
	return nil, provider.ErrUnsupported
}

func (f *fakeProvider) ReverseZip(context.Context, float64, float64) (string, error) {
	return "", provider.ErrUnsupported
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestService(client provider.Client, cfg Config) (*Service, *kvstore.MemoryStore) {
	store := kvstore.NewMemoryStore()
	logger := testLogger()
	guard := resilience.New(store, resilience.Config{}, logger)
	return New(client, guard, store, cfg, logger), store
}

var testAddr = address.Address{Street: "6406 Ivy Lane", City: "Greenbelt", State: "MD", Zip: "20770"}

func TestValidateAddress_NoProviderIsPermissive(t *testing.T) {
	svc, _ := newTestService(nil, Config{ValidationEnabled: true})

	result := svc.ValidateAddress(context.Background(), testAddr)
	assert.True(t, result.Valid)
	assert.Equal(t, testAddr, result.Standardized)
	assert.Empty(t, result.Issues)
}

func TestValidateAddress_DisabledIsPermissive(t *testing.T) {
	p := &fakeProvider{name: "usps", configured: true, validateFn: func(address.Address) (*address.ValidationResult, error) {
		t.Fatal("provider must not be called when validation is disabled")
		return nil, nil
	}}
	svc, _ := newTestService(p, Config{ValidationEnabled: false})

	result := svc.ValidateAddress(context.Background(), testAddr)
	assert.True(t, result.Valid)
	assert.Zero(t, p.validateCalls.Load())
}

func TestValidateAddress_MissingCredentials(t *testing.T) {
	p := &fakeProvider{name: "usps", configured: false}
	svc, _ := newTestService(p, Config{ValidationEnabled: true})

	result := svc.ValidateAddress(context.Background(), testAddr)
	assert.True(t, result.Valid, "misconfiguration must never block the flow")
	assert.Contains(t, result.Issues, "Address validation not performed")
	assert.Zero(t, p.validateCalls.Load())
}

func TestValidateAddress_IdempotentWithinTTL(t *testing.T) {
	standardized := address.Address{Street: "6406 IVY LN", City: "GREENBELT", State: "MD", Zip: "20770-1441"}
	p := &fakeProvider{name: "usps", configured: true, validateFn: func(address.Address) (*address.ValidationResult, error) {
		return &address.ValidationResult{Valid: true, Standardized: standardized, DPVCode: "Y"}, nil
	}}
	svc, _ := newTestService(p, Config{ValidationEnabled: true})

	first := svc.ValidateAddress(context.Background(), testAddr)
	second := svc.ValidateAddress(context.Background(), testAddr)

	assert.Equal(t, first, second, "repeat validations must return identical results")
	assert.Equal(t, int64(1), p.validateCalls.Load(), "second call must be a cache hit")
}

func TestValidateAddress_ProviderErrorFallsBackOpen(t *testing.T) {
	p := &fakeProvider{name: "usps", configured: true, validateFn: func(address.Address) (*address.ValidationResult, error) {
		return nil, errors.New("connection timed out")
	}}
	svc, _ := newTestService(p, Config{ValidationEnabled: true})

	result := svc.ValidateAddress(context.Background(), testAddr)
	assert.True(t, result.Valid, "provider outages degrade to the permissive fallback")
	assert.Equal(t, testAddr, result.Standardized)
	assert.Contains(t, result.Issues, "Address validation unavailable; address accepted without verification")
}

func TestValidateAddress_FallbackIsNotCached(t *testing.T) {
	healthy := false
	p := &fakeProvider{name: "usps", configured: true, validateFn: func(addr address.Address) (*address.ValidationResult, error) {
		if !healthy {
			return nil, errors.New("temporarily down")
		}
		return &address.ValidationResult{Valid: true, Standardized: addr, DPVCode: "Y"}, nil
	}}
	svc, _ := newTestService(p, Config{ValidationEnabled: true})

	degraded := svc.ValidateAddress(context.Background(), testAddr)
	assert.Contains(t, degraded.Issues, "Address validation unavailable; address accepted without verification")

	healthy = true
	recovered := svc.ValidateAddress(context.Background(), testAddr)
	assert.Empty(t, recovered.Issues, "a recovered provider must serve real results, not a cached fallback")
	assert.Equal(t, "Y", recovered.DPVCode)
}

func TestValidateAddress_OpenCircuitSkipsProvider(t *testing.T) {
	p := &fakeProvider{name: "usps", configured: true, validateFn: func(address.Address) (*address.ValidationResult, error) {
		return nil, errors.New("down")
	}}

	store := kvstore.NewMemoryStore()
	logger := testLogger()
	guard := resilience.New(store, resilience.Config{CircuitFailureThreshold: 1}, logger)
	svc := New(p, guard, store, Config{ValidationEnabled: true}, logger)

	svc.ValidateAddress(context.Background(), testAddr)
	require.Equal(t, int64(1), p.validateCalls.Load())

	other := address.Address{Street: "123 Main St", City: "Bethesda", State: "MD", Zip: "20814"}
	result := svc.ValidateAddress(context.Background(), other)
	assert.Equal(t, int64(1), p.validateCalls.Load(), "open circuit must skip the provider call")
	assert.True(t, result.Valid)
}

func TestAutocomplete_ShortInputReturnsEmpty(t *testing.T) {
	p := &fakeProvider{name: "google", configured: true, autocompleteFn: func(string) ([]address.Prediction, error) {
		t.Fatal("provider must not be called for short input")
		return nil, nil
	}}
	svc, _ := newTestService(p, Config{AutocompleteEnabled: true, ValidationEnabled: true})

	assert.Empty(t, svc.Autocomplete(context.Background(), "16", ""))
	assert.Empty(t, svc.Autocomplete(context.Background(), "  1 ", ""))
}

func TestAutocomplete_Disabled(t *testing.T) {
	p := &fakeProvider{name: "google", configured: true}
	svc, _ := newTestService(p, Config{AutocompleteEnabled: false})

	assert.Empty(t, svc.Autocomplete(context.Background(), "1600 Penn", ""))
}

func TestAutocomplete_DelegatesToProvider(t *testing.T) {
	p := &fakeProvider{name: "google", configured: true, autocompleteFn: func(input string) ([]address.Prediction, error) {
		return []address.Prediction{{PlaceID: "p1", Description: input + "sylvania Ave"}}, nil
	}}
	svc, _ := newTestService(p, Config{AutocompleteEnabled: true})

	got := svc.Autocomplete(context.Background(), "1600 Penn", "tok")
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].PlaceID)
}

func TestCachedResult(t *testing.T) {
	p := &fakeProvider{name: "usps", configured: true, validateFn: func(addr address.Address) (*address.ValidationResult, error) {
		return &address.ValidationResult{
			Valid:        true,
			Standardized: addr,
			Coordinates:  &address.GeocodeResult{Latitude: 38.99, Longitude: -76.89},
		}, nil
	}}
	svc, _ := newTestService(p, Config{ValidationEnabled: true})

	_, ok := svc.CachedResult(context.Background(), testAddr)
	assert.False(t, ok)

	svc.ValidateAddress(context.Background(), testAddr)

	cached, ok := svc.CachedResult(context.Background(), testAddr)
	require.True(t, ok)
	require.NotNil(t, cached.Coordinates)
	assert.InDelta(t, 38.99, cached.Coordinates.Latitude, 0.0001)
}
