// Package geocoding resolves addresses to coordinates and classifies those
// coordinates against configured service territories. Like validation, it
// never fails hard: a geocode that cannot be performed yields an absent
// result and an unknown territory verdict, not an error.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/peanutgraphic/servicepoint/internal/address"
	"github.com/peanutgraphic/servicepoint/internal/geocoding/metrics"
	"github.com/peanutgraphic/servicepoint/internal/platform/kvstore"
	"github.com/peanutgraphic/servicepoint/internal/provider"
	"github.com/peanutgraphic/servicepoint/internal/resilience"
)

// Messages for the combined service-address verdict.
const (
	msgInTerritory      = "Address is in the service territory."
	msgOutOfTerritory   = "Address is outside the service territory."
	msgTerritoryUnknown = "Unable to verify service territory."
	msgInvalidAddress   = "Address could not be validated."
)

// Validator is the slice of the validation service this package depends on.
type Validator interface {
	ValidateAddress(ctx context.Context, addr address.Address) address.ValidationResult
	CachedResult(ctx context.Context, addr address.Address) (address.ValidationResult, bool)
	GuardProvider() string
}

// Config carries the geocoding and territory settings.
type Config struct {
	Strict         bool          // reject out-of-territory enrollments when the address itself is invalid
	DefaultUtility string        // utility assumed when a check names none
	GeocodeTTL     time.Duration // default 30 days
}

// Service composes the validation service, direct provider geocoding, and
// the territory engine.
type Service struct {
	provider    provider.Client
	guard       *resilience.Guard
	validator   Validator
	territories *TerritoryStore
	cache       *kvstore.Cache[address.GeocodeResult]
	zipCache    *kvstore.Cache[string]
	logger      *slog.Logger
	metrics     *metrics.Metrics
	cfg         Config
	guardKey    string
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the geocoding service. client may be nil; geocoding then
// always reports absent and territory verdicts stay unknown.
func New(client provider.Client, guard *resilience.Guard, validator Validator, territories *TerritoryStore, store kvstore.Store, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if cfg.GeocodeTTL <= 0 {
		cfg.GeocodeTTL = 30 * 24 * time.Hour
	}
	s := &Service{
		provider:    client,
		guard:       guard,
		validator:   validator,
		territories: territories,
		cache:       kvstore.NewCache[address.GeocodeResult](store, "geo:", cfg.GeocodeTTL),
		zipCache:    kvstore.NewCache[string](store, "zip:", cfg.GeocodeTTL),
		logger:      logger,
		cfg:         cfg,
	}
	if client != nil {
		s.guardKey = client.Name() + "_geocoding"
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GeocodeAddress resolves an address to coordinates. Order of attempts:
// coordinates already present in a cached validation result, the geocode
// cache, then a guarded provider call. Returns nil on any failure.
func (s *Service) GeocodeAddress(ctx context.Context, addr address.Address) *address.GeocodeResult {
	if addr.IsEmpty() {
		return nil
	}

	if s.validator != nil {
		if cached, ok := s.validator.CachedResult(ctx, addr); ok && cached.Coordinates != nil {
			s.incGeocode("validation")
			return cached.Coordinates
		}
	}

	key := addr.CacheKey()
	if cached, ok := s.cache.Get(ctx, key); ok {
		s.incGeocode("cache")
		return &cached
	}

	if s.provider == nil || !s.provider.Configured() {
		s.incGeocode("none")
		return nil
	}

	result, ok := resilience.Do(ctx, s.guard, s.guardKey, func(ctx context.Context) (*address.GeocodeResult, error) {
		out, err := s.provider.Geocode(ctx, addr)
		if errors.Is(err, provider.ErrUnsupported) {
			return nil, nil
		}
		return out, err
	}, nil)
	if !ok || result == nil {
		s.incGeocode("none")
		return nil
	}

	if err := s.cache.Set(ctx, key, *result); err != nil {
		s.logger.WarnContext(ctx, "unable to cache geocode result", "error", err)
	}
	s.incGeocode("provider")
	return result
}

// resolveZip reverse-geocodes a point to its ZIP code, cached with the
// coordinates rounded to four decimals (about 11 meters). Returns "" when no
// provider can answer; zip territories then simply never match.
func (s *Service) resolveZip(ctx context.Context, lat, lng float64) string {
	key := fmt.Sprintf("%.4f,%.4f", lat, lng)
	if zip, ok := s.zipCache.Get(ctx, key); ok {
		return zip
	}

	if s.provider == nil || !s.provider.Configured() {
		return ""
	}

	zip, ok := resilience.Do(ctx, s.guard, s.guardKey, func(ctx context.Context) (string, error) {
		out, err := s.provider.ReverseZip(ctx, lat, lng)
		if errors.Is(err, provider.ErrUnsupported) {
			return "", nil
		}
		return out, err
	}, "")
	if !ok || zip == "" {
		return ""
	}

	if err := s.zipCache.Set(ctx, key, zip); err != nil {
		s.logger.WarnContext(ctx, "unable to cache reverse zip", "error", err)
	}
	return zip
}

// TerritoryRef identifies one matched territory.
type TerritoryRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Utility string `json:"utility"`
}

// TerritoryCheck is the verdict for one point.
type TerritoryCheck struct {
	InTerritory bool           `json:"in_territory"`
	Matches     []TerritoryRef `json:"matching_territories"`
}

// CheckServiceTerritory tests a point against all configured territories,
// optionally filtered to one utility. A point may match many territories;
// every match is returned.
func (s *Service) CheckServiceTerritory(ctx context.Context, lat, lng float64, utility string) TerritoryCheck {
	territories, err := s.territories.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "unable to load territories", "error", err)
		return TerritoryCheck{Matches: []TerritoryRef{}}
	}

	// Reverse-geocode the point only when a zip territory actually needs it.
	zip := ""
	zipResolved := false

	check := TerritoryCheck{Matches: []TerritoryRef{}}
	for _, t := range territories {
		if utility != "" && t.Utility != utility {
			continue
		}
		if t.Type == TerritoryZip && !zipResolved {
			zip = s.resolveZip(ctx, lat, lng)
			zipResolved = true
		}
		if t.Matches(lat, lng, zip) {
			check.Matches = append(check.Matches, TerritoryRef{ID: t.ID, Name: t.Name, Utility: t.Utility})
		}
	}
	check.InTerritory = len(check.Matches) > 0

	if s.metrics != nil {
		if check.InTerritory {
			s.metrics.IncTerritoryCheck("match")
		} else {
			s.metrics.IncTerritoryCheck("no_match")
		}
	}
	return check
}

// ServiceAddressResult is the combined validate-geocode-classify verdict.
// InTerritory is nil when the territory could not be determined, which is
// distinct from a confirmed out-of-territory answer.
type ServiceAddressResult struct {
	Valid        bool                   `json:"valid"`
	InTerritory  *bool                  `json:"in_territory"`
	Message      string                 `json:"message"`
	Standardized address.Address        `json:"standardized"`
	Issues       []string               `json:"issues,omitempty"`
	Coordinates  *address.GeocodeResult `json:"coordinates,omitempty"`
	Matches      []TerritoryRef         `json:"matching_territories,omitempty"`
}

// ValidateServiceAddress runs the full pipeline: validate, geocode the
// standardized address, classify the point.
func (s *Service) ValidateServiceAddress(ctx context.Context, addr address.Address, utility string) ServiceAddressResult {
	if utility == "" {
		utility = s.cfg.DefaultUtility
	}

	vr := s.validator.ValidateAddress(ctx, addr)
	result := ServiceAddressResult{
		Valid:        vr.Valid,
		Standardized: vr.Standardized,
		Issues:       vr.Issues,
	}

	if !vr.Valid && s.cfg.Strict {
		out := false
		result.InTerritory = &out
		result.Message = msgInvalidAddress
		return result
	}

	geo := s.GeocodeAddress(ctx, vr.Standardized)
	if geo == nil {
		result.Message = msgTerritoryUnknown
		return result
	}
	result.Coordinates = geo

	check := s.CheckServiceTerritory(ctx, geo.Latitude, geo.Longitude, utility)
	result.InTerritory = &check.InTerritory
	result.Matches = check.Matches
	if check.InTerritory {
		result.Message = msgInTerritory
	} else {
		result.Message = msgOutOfTerritory
	}
	return result
}

// ProviderHealth is one provider's guard state for the health endpoint.
type ProviderHealth struct {
	Healthy       bool   `json:"healthy"`
	CircuitState  string `json:"circuit_state"`
	FailureCount  int    `json:"failure_count"`
	RateLimitUsed int    `json:"rate_limit_used"`
	RateLimitMax  int    `json:"rate_limit_max"`
}

// HealthStatus aggregates guard state across the validation and geocoding
// provider keys.
func (s *Service) HealthStatus(ctx context.Context) map[string]ProviderHealth {
	keys := make([]string, 0, 2)
	if s.validator != nil {
		if k := s.validator.GuardProvider(); k != "" {
			keys = append(keys, k)
		}
	}
	if s.guardKey != "" && (len(keys) == 0 || keys[0] != s.guardKey) {
		keys = append(keys, s.guardKey)
	}

	out := make(map[string]ProviderHealth, len(keys))
	snaps := make([]resilience.Snapshot, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			snaps[i] = s.guard.Inspect(gctx, key)
			return nil
		})
	}
	_ = g.Wait()

	for i, key := range keys {
		snap := snaps[i]
		state := "closed"
		if snap.CircuitOpen {
			state = "open"
		}
		out[key] = ProviderHealth{
			Healthy:       !snap.CircuitOpen,
			CircuitState:  state,
			FailureCount:  snap.FailureCount,
			RateLimitUsed: snap.RateLimitUsed,
			RateLimitMax:  snap.RateLimitMax,
		}
	}
	return out
}

// Territories lists the configured territory collection.
func (s *Service) Territories(ctx context.Context) ([]Territory, error) {
	return s.territories.List(ctx)
}

// SaveTerritory upserts a territory and returns its id.
func (s *Service) SaveTerritory(ctx context.Context, t Territory) (string, error) {
	id, err := s.territories.Save(ctx, t)
	if err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.IncTerritorySave()
	}
	return id, nil
}

// DeleteTerritory removes a territory by id.
func (s *Service) DeleteTerritory(ctx context.Context, id string) (bool, error) {
	return s.territories.Delete(ctx, id)
}

func (s *Service) incGeocode(source string) {
	if s.metrics != nil {
		s.metrics.IncGeocode(source)
	}
}
