// Package resilience protects outbound provider calls with a per-provider
// fixed-window rate limiter and a circuit breaker. State lives in the TTL
// store, so windows and recovery periods expire on their own and survive
// process restarts.
package resilience

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/peanutgraphic/servicepoint/internal/notify"
	"github.com/peanutgraphic/servicepoint/internal/platform/kvstore"
	"github.com/peanutgraphic/servicepoint/internal/resilience/metrics"
)

const (
	rateLimitKeyPrefix = "rl:"
	circuitKeyPrefix   = "cb:open:"
	failureKeyPrefix   = "cb:fail:"
)

// Config tunes the guard. Zero values take the documented defaults.
type Config struct {
	RateLimitRequests       int           // default 100
	RateLimitWindow         time.Duration // default 60s
	CircuitFailureThreshold int           // default 5
	CircuitRecoveryTime     time.Duration // default 300s
}

func (c Config) withDefaults() Config {
	if c.RateLimitRequests <= 0 {
		c.RateLimitRequests = 100
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = 60 * time.Second
	}
	if c.CircuitFailureThreshold <= 0 {
		c.CircuitFailureThreshold = 5
	}
	if c.CircuitRecoveryTime <= 0 {
		c.CircuitRecoveryTime = 300 * time.Second
	}
	return c
}

// Guard wraps outbound calls for arbitrarily many named providers. Each
// provider gets independent counters; there is no cross-contamination.
type Guard struct {
	store   kvstore.Store
	cfg     Config
	logger  *slog.Logger
	sink    notify.Sink
	metrics *metrics.Metrics
}

// Option configures a Guard.
type Option func(*Guard)

// WithSink sets the event sink for circuit and rate-limit notifications.
func WithSink(sink notify.Sink) Option {
	return func(g *Guard) { g.sink = sink }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) { g.metrics = m }
}

// New creates a guard over the given TTL store.
func New(store kvstore.Store, cfg Config, logger *slog.Logger, opts ...Option) *Guard {
	g := &Guard{
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AllowRequest counts one request against the provider's fixed window and
// reports whether it is within the limit. The window resets by TTL expiry;
// there is no manual reset. Store errors fail open: a broken cache backend
// must not block enrollment traffic.
func (g *Guard) AllowRequest(ctx context.Context, provider string) bool {
	n, err := g.store.Increment(ctx, rateLimitKeyPrefix+provider, g.cfg.RateLimitWindow)
	if err != nil {
		g.logger.ErrorContext(ctx, "rate limit counter unavailable", "provider", provider, "error", err)
		return true
	}
	if n > int64(g.cfg.RateLimitRequests) {
		g.logger.WarnContext(ctx, "provider rate limit exceeded",
			"provider", provider,
			"count", n,
			"limit", g.cfg.RateLimitRequests,
		)
		if g.metrics != nil {
			g.metrics.IncRateLimitRejected(provider)
		}
		if g.sink != nil {
			g.sink.Emit(ctx, notify.Event{Type: notify.EventRateLimitExceeded, Provider: provider})
		}
		return false
	}
	return true
}

// CircuitOpen reports whether the provider's circuit is currently open.
// The open marker expires after the recovery time; the next call is then
// treated as closed.
func (g *Guard) CircuitOpen(ctx context.Context, provider string) bool {
	_, open, err := g.store.Get(ctx, circuitKeyPrefix+provider)
	if err != nil {
		g.logger.ErrorContext(ctx, "circuit state unavailable", "provider", provider, "error", err)
		return false
	}
	return open
}

// RecordFailure counts a transient provider failure. Reaching the threshold
// opens the circuit for the recovery time and clears the failure counter, so
// a failure after recovery restarts the count from one.
func (g *Guard) RecordFailure(ctx context.Context, provider string, cause error) {
	if g.metrics != nil {
		g.metrics.IncProviderFailure(provider)
	}
	g.logger.ErrorContext(ctx, "provider call failed",
		"provider", provider,
		"error", cause,
	)
	if g.sink != nil {
		g.sink.Emit(ctx, notify.Event{
			Type:     notify.EventProviderError,
			Provider: provider,
			Detail:   cause.Error(),
		})
	}

	n, err := g.store.Increment(ctx, failureKeyPrefix+provider, g.cfg.CircuitRecoveryTime)
	if err != nil {
		g.logger.ErrorContext(ctx, "failure counter unavailable", "provider", provider, "error", err)
		return
	}
	if n < int64(g.cfg.CircuitFailureThreshold) {
		return
	}

	if err := g.store.Set(ctx, circuitKeyPrefix+provider, "1", g.cfg.CircuitRecoveryTime); err != nil {
		g.logger.ErrorContext(ctx, "unable to open circuit", "provider", provider, "error", err)
		return
	}
	_ = g.store.Delete(ctx, failureKeyPrefix+provider)

	g.logger.ErrorContext(ctx, "circuit opened",
		"provider", provider,
		"failures", n,
		"recovery", g.cfg.CircuitRecoveryTime,
	)
	if g.metrics != nil {
		g.metrics.IncCircuitOpened(provider)
	}
	if g.sink != nil {
		g.sink.Emit(ctx, notify.Event{Type: notify.EventCircuitOpened, Provider: provider})
	}
}

// RecordSuccess fully resets the breaker: failure counter cleared, circuit
// closed. A single success is enough; there is no half-open probe count.
func (g *Guard) RecordSuccess(ctx context.Context, provider string) {
	_ = g.store.Delete(ctx, failureKeyPrefix+provider)
	_ = g.store.Delete(ctx, circuitKeyPrefix+provider)
}

// Snapshot reports the guard's view of one provider for health endpoints.
type Snapshot struct {
	CircuitOpen   bool
	FailureCount  int
	RateLimitUsed int
	RateLimitMax  int
}

// Inspect returns the current counters for a provider without mutating them.
func (g *Guard) Inspect(ctx context.Context, provider string) Snapshot {
	snap := Snapshot{RateLimitMax: g.cfg.RateLimitRequests}

	snap.CircuitOpen = g.CircuitOpen(ctx, provider)

	if raw, ok, err := g.store.Get(ctx, failureKeyPrefix+provider); err == nil && ok {
		if n, err := strconv.Atoi(raw); err == nil {
			snap.FailureCount = n
		}
	}
	if raw, ok, err := g.store.Get(ctx, rateLimitKeyPrefix+provider); err == nil && ok {
		if n, err := strconv.Atoi(raw); err == nil {
			snap.RateLimitUsed = n
		}
	}
	return snap
}

// Do invokes fn under the guard. When the circuit is open or the rate window
// is exhausted, fallback is returned without calling fn. A call error records
// a failure and returns fallback; a normal result records a success and is
// returned verbatim. The boolean reports whether the real result was used.
func Do[T any](ctx context.Context, g *Guard, provider string, fn func(context.Context) (T, error), fallback T) (T, bool) {
	if g.CircuitOpen(ctx, provider) {
		g.logger.InfoContext(ctx, "circuit open, using fallback", "provider", provider)
		if g.metrics != nil {
			g.metrics.IncGuardedCall(provider, "circuit_open")
		}
		return fallback, false
	}
	if !g.AllowRequest(ctx, provider) {
		if g.metrics != nil {
			g.metrics.IncGuardedCall(provider, "rate_limited")
		}
		return fallback, false
	}

	result, err := fn(ctx)
	if err != nil {
		g.RecordFailure(ctx, provider, err)
		if g.metrics != nil {
			g.metrics.IncGuardedCall(provider, "failure")
		}
		return fallback, false
	}

	g.RecordSuccess(ctx, provider)
	if g.metrics != nil {
		g.metrics.IncGuardedCall(provider, "success")
	}
	return result, true
}
