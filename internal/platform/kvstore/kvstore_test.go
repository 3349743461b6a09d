package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", val)

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(61 * time.Second)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "value should expire after its TTL")
}

func TestMemoryStore_IncrementWindow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Now()
	s.SetClock(func() time.Time { return now })

	for i := int64(1); i <= 3; i++ {
		n, err := s.Increment(ctx, "counter", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	// Later increments must not extend the window.
	now = now.Add(59 * time.Second)
	n, err := s.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	now = now.Add(2 * time.Second)
	n, err = s.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counter should reset once the window elapses")
}

func TestCache_TwoTier(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type result struct {
		Value string `json:"value"`
	}

	c := NewCache[result](s, "test:", time.Minute)

	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "key", result{Value: "cached"}))

	got, ok := c.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, "cached", got.Value)

	// Durable tier carries values across cache instances (fresh local tier).
	c2 := NewCache[result](s, "test:", time.Minute)
	got, ok = c2.Get(ctx, "key")
	require.True(t, ok)
	assert.Equal(t, "cached", got.Value)
}

func TestCache_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type result struct {
		Value string `json:"value"`
	}

	a := NewCache[result](s, "a:", time.Minute)
	b := NewCache[result](s, "b:", time.Minute)

	require.NoError(t, a.Set(ctx, "key", result{Value: "from-a"}))

	_, ok := b.Get(ctx, "key")
	assert.False(t, ok, "caches with different prefixes must not share entries")
}
