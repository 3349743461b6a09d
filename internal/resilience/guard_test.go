package resilience

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peanutgraphic/servicepoint/internal/notify"
	"github.com/peanutgraphic/servicepoint/internal/platform/kvstore"
)

// recordingSink captures emitted events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *recordingSink) Emit(_ context.Context, e notify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) byType(eventType string) []notify.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notify.Event
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestGuard(cfg Config) (*Guard, *kvstore.MemoryStore, *recordingSink) {
	store := kvstore.NewMemoryStore()
	sink := &recordingSink{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New(store, cfg, logger, WithSink(sink)), store, sink
}

func TestGuard_CircuitOpensAtThreshold(t *testing.T) {
	ctx := context.Background()
	g, _, sink := newTestGuard(Config{CircuitFailureThreshold: 5})

	cause := errors.New("connection timed out")
	for i := 0; i < 4; i++ {
		g.RecordFailure(ctx, "usps", cause)
		assert.False(t, g.CircuitOpen(ctx, "usps"), "circuit must stay closed below the threshold")
	}

	g.RecordFailure(ctx, "usps", cause)
	assert.True(t, g.CircuitOpen(ctx, "usps"), "circuit must open at the threshold")

	opened := sink.byType(notify.EventCircuitOpened)
	require.Len(t, opened, 1)
	assert.Equal(t, "usps", opened[0].Provider)
}

func TestGuard_SuccessResetsBreaker(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGuard(Config{CircuitFailureThreshold: 3})

	cause := errors.New("503 from provider")
	g.RecordFailure(ctx, "google_validation", cause)
	g.RecordFailure(ctx, "google_validation", cause)
	g.RecordSuccess(ctx, "google_validation")

	// Counter restarted: two more failures stay below the threshold.
	g.RecordFailure(ctx, "google_validation", cause)
	g.RecordFailure(ctx, "google_validation", cause)
	assert.False(t, g.CircuitOpen(ctx, "google_validation"))

	g.RecordFailure(ctx, "google_validation", cause)
	assert.True(t, g.CircuitOpen(ctx, "google_validation"))

	// A single success closes an open circuit immediately.
	g.RecordSuccess(ctx, "google_validation")
	assert.False(t, g.CircuitOpen(ctx, "google_validation"))
}

func TestGuard_CircuitRecoversByExpiry(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	g := New(store, Config{CircuitFailureThreshold: 1, CircuitRecoveryTime: 300 * time.Second}, logger)

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	g.RecordFailure(ctx, "smartystreets", errors.New("timeout"))
	require.True(t, g.CircuitOpen(ctx, "smartystreets"))

	now = now.Add(301 * time.Second)
	assert.False(t, g.CircuitOpen(ctx, "smartystreets"), "circuit must close passively after the recovery time")
}

func TestGuard_RateLimitWindow(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	sink := &recordingSink{}
	g := New(store, Config{RateLimitRequests: 3, RateLimitWindow: time.Minute}, logger, WithSink(sink))

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		assert.True(t, g.AllowRequest(ctx, "usps"))
	}
	assert.False(t, g.AllowRequest(ctx, "usps"), "requests beyond the limit must be rejected")
	require.NotEmpty(t, sink.byType(notify.EventRateLimitExceeded))

	now = now.Add(61 * time.Second)
	assert.True(t, g.AllowRequest(ctx, "usps"), "window must reset after it elapses")
}

func TestGuard_ProvidersAreIsolated(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGuard(Config{CircuitFailureThreshold: 1, RateLimitRequests: 1})

	g.RecordFailure(ctx, "usps", errors.New("down"))
	require.True(t, g.CircuitOpen(ctx, "usps"))
	assert.False(t, g.CircuitOpen(ctx, "google_validation"))

	assert.True(t, g.AllowRequest(ctx, "google_validation"))
	assert.False(t, g.AllowRequest(ctx, "google_validation"))
	assert.True(t, g.AllowRequest(ctx, "smartystreets"), "one provider's window must not affect another's")
}

func TestDo_GuardedCall(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns result verbatim", func(t *testing.T) {
		g, _, _ := newTestGuard(Config{})
		got, ok := Do(ctx, g, "usps", func(context.Context) (string, error) {
			return "real", nil
		}, "fallback")
		assert.True(t, ok)
		assert.Equal(t, "real", got)
	})

	t.Run("error routes to fallback and records failure", func(t *testing.T) {
		g, _, _ := newTestGuard(Config{CircuitFailureThreshold: 1})
		got, ok := Do(ctx, g, "usps", func(context.Context) (string, error) {
			return "", errors.New("boom")
		}, "fallback")
		assert.False(t, ok)
		assert.Equal(t, "fallback", got)
		assert.True(t, g.CircuitOpen(ctx, "usps"))
	})

	t.Run("open circuit skips the call", func(t *testing.T) {
		g, _, _ := newTestGuard(Config{CircuitFailureThreshold: 1})
		g.RecordFailure(ctx, "usps", errors.New("down"))

		called := false
		got, ok := Do(ctx, g, "usps", func(context.Context) (string, error) {
			called = true
			return "real", nil
		}, "fallback")
		assert.False(t, ok)
		assert.Equal(t, "fallback", got)
		assert.False(t, called, "fn must not run while the circuit is open")
	})

	t.Run("exhausted window skips the call", func(t *testing.T) {
		g, _, _ := newTestGuard(Config{RateLimitRequests: 1})
		_, ok := Do(ctx, g, "usps", func(context.Context) (string, error) { return "a", nil }, "fb")
		require.True(t, ok)

		called := false
		got, ok := Do(ctx, g, "usps", func(context.Context) (string, error) {
			called = true
			return "b", nil
		}, "fb")
		assert.False(t, ok)
		assert.Equal(t, "fb", got)
		assert.False(t, called)
	})
}

func TestGuard_Inspect(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newTestGuard(Config{RateLimitRequests: 100, CircuitFailureThreshold: 5})

	g.AllowRequest(ctx, "usps")
	g.AllowRequest(ctx, "usps")
	g.RecordFailure(ctx, "usps", errors.New("down"))

	snap := g.Inspect(ctx, "usps")
	assert.False(t, snap.CircuitOpen)
	assert.Equal(t, 1, snap.FailureCount)
	assert.Equal(t, 2, snap.RateLimitUsed)
	assert.Equal(t, 100, snap.RateLimitMax)
}
