// Package validation implements the address validation service: provider
// selection, cache lookup, resilience-guarded provider calls, and result
// normalization.
//
// Validation is never a hard blocker. Missing configuration, provider
// outages, rate limiting, and open circuits all degrade to a permissive
// result with an explanatory issue, and enrollment proceeds either way.
package validation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/peanutgraphic/servicepoint/internal/address"
	"github.com/peanutgraphic/servicepoint/internal/platform/kvstore"
	"github.com/peanutgraphic/servicepoint/internal/provider"
	"github.com/peanutgraphic/servicepoint/internal/resilience"
	"github.com/peanutgraphic/servicepoint/internal/validation/metrics"
)

// minAutocompleteInput is the shortest input worth a provider round trip.
const minAutocompleteInput = 3

// Issue strings for degraded outcomes.
const (
	issueNotPerformed = "Address validation not performed"
	issueUnavailable  = "Address validation unavailable; address accepted without verification"
)

// Config carries the feature toggles and cache retention.
type Config struct {
	AutocompleteEnabled bool
	ValidationEnabled   bool
	CacheTTL            time.Duration // default 24h
}

// Service is the address validation service.
type Service struct {
	provider provider.Client
	guard    *resilience.Guard
	cache    *kvstore.Cache[address.ValidationResult]
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cfg      Config
	guardKey string
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the validation service. client may be nil (no provider
// configured), in which case every validation returns the permissive
// default.
func New(client provider.Client, guard *resilience.Guard, store kvstore.Store, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	s := &Service{
		provider: client,
		guard:    guard,
		cache:    kvstore.NewCache[address.ValidationResult](store, "av:", cfg.CacheTTL),
		logger:   logger,
		cfg:      cfg,
	}
	if client != nil {
		s.guardKey = client.Name() + "_validation"
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GuardProvider returns the guard key this service's provider calls run
// under, or "" when no provider is configured.
func (s *Service) GuardProvider() string { return s.guardKey }

// Autocomplete returns predictions for a partial address input. Short
// inputs, a disabled feature, or an absent provider yield an empty slice
// without any network traffic.
func (s *Service) Autocomplete(ctx context.Context, input, sessionToken string) []address.Prediction {
	input = strings.TrimSpace(input)
	if len(input) < minAutocompleteInput || !s.cfg.AutocompleteEnabled {
		return nil
	}
	if s.provider == nil || !s.provider.Configured() {
		return nil
	}
	if s.metrics != nil {
		s.metrics.IncAutocomplete()
	}

	predictions, _ := resilience.Do(ctx, s.guard, s.guardKey, func(ctx context.Context) ([]address.Prediction, error) {
		out, err := s.provider.Autocomplete(ctx, input, sessionToken)
		if errors.Is(err, provider.ErrUnsupported) {
			return nil, nil
		}
		return out, err
	}, nil)
	return predictions
}

// ValidateAddress validates one address. Cache-first; a hit short-circuits
// the provider call and all resilience bookkeeping. Without a configured
// provider the permissive default is returned and nothing is cached.
func (s *Service) ValidateAddress(ctx context.Context, addr address.Address) address.ValidationResult {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveValidationDuration(time.Since(start).Seconds())
		}
	}()

	key := addr.CacheKey()
	if cached, ok := s.cache.Get(ctx, key); ok {
		if s.metrics != nil {
			s.metrics.IncValidation("cache")
		}
		return cached
	}

	if s.provider == nil || !s.cfg.ValidationEnabled {
		if s.metrics != nil {
			s.metrics.IncValidation("permissive")
		}
		return address.ValidationResult{Valid: true, Standardized: addr}
	}

	if !s.provider.Configured() {
		s.logger.WarnContext(ctx, "provider credentials missing, skipping validation",
			"provider", s.provider.Name(),
		)
		if s.metrics != nil {
			s.metrics.IncValidation("permissive")
		}
		return address.ValidationResult{
			Valid:        true,
			Standardized: addr,
			Issues:       []string{issueNotPerformed},
		}
	}

	fallback := address.ValidationResult{
		Valid:        true,
		Standardized: addr,
		Issues:       []string{issueUnavailable},
	}

	result, ok := resilience.Do(ctx, s.guard, s.guardKey, func(ctx context.Context) (address.ValidationResult, error) {
		out, err := s.provider.Validate(ctx, addr)
		if err != nil {
			return address.ValidationResult{}, err
		}
		return *out, nil
	}, fallback)

	if !ok {
		// Degraded outcomes are not cached; the provider may recover before
		// the TTL would expire.
		if s.metrics != nil {
			s.metrics.IncValidation("fallback")
		}
		return result
	}

	if err := s.cache.Set(ctx, key, result); err != nil {
		s.logger.WarnContext(ctx, "unable to cache validation result", "error", err)
	}
	if s.metrics != nil {
		s.metrics.IncValidation("provider")
	}
	return result
}

// CachedResult returns a previously cached validation result without any
// provider traffic. The geocoding service uses this to reuse coordinates.
func (s *Service) CachedResult(ctx context.Context, addr address.Address) (address.ValidationResult, bool) {
	return s.cache.Get(ctx, addr.CacheKey())
}

// PlaceDetails resolves an autocomplete place id to a full address. Only
// meaningful for providers that expose place ids; others return nil.
func (s *Service) PlaceDetails(ctx context.Context, placeID, sessionToken string) *address.Address {
	if placeID == "" || s.provider == nil || !s.provider.Configured() {
		return nil
	}

	addr, _ := resilience.Do(ctx, s.guard, s.guardKey, func(ctx context.Context) (*address.Address, error) {
		out, err := s.provider.PlaceDetails(ctx, placeID, sessionToken)
		if errors.Is(err, provider.ErrUnsupported) {
			return nil, nil
		}
		return out, err
	}, nil)
	return addr
}
