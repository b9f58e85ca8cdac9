package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestGetOrFetchServesLiveEntryUntilTTL(t *testing.T) {
	clock := newFakeClock()
	mc := NewMemoryCache(WithClock(clock.Now), WithMemoryCleanup(0))
	defer mc.Close()

	calls := 0
	fetch := func(context.Context) (float64, error) {
		calls++
		return 4.33, nil
	}
	ctx := context.Background()

	v, err := GetOrFetch(ctx, mc, "sofr", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 4.33, v)
	assert.Equal(t, 1, calls)

	clock.Advance(59 * time.Second)
	_, err = GetOrFetch(ctx, mc, "sofr", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "entry younger than ttl must not refetch")

	clock.Advance(2 * time.Second)
	_, err = GetOrFetch(ctx, mc, "sofr", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "entry older than ttl must refetch")
}

func TestGetOrFetchExpiresExactlyAtTTL(t *testing.T) {
	clock := newFakeClock()
	mc := NewMemoryCache(WithClock(clock.Now), WithMemoryCleanup(0))
	defer mc.Close()

	mc.Set("k", 1, time.Minute)
	clock.Advance(time.Minute)

	_, ok := mc.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, mc.Len(), "expired entry is dropped on read")
}

func TestGetOrFetchDoesNotCacheFailures(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	calls := 0
	boom := errors.New("upstream down")
	fetch := func(context.Context) ([]float64, error) {
		calls++
		return nil, boom
	}

	_, err := GetOrFetch(context.Background(), mc, "k", time.Minute, fetch)
	require.ErrorIs(t, err, boom)
	_, err = GetOrFetch(context.Background(), mc, "k", time.Minute, fetch)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, mc.Len())
}

func TestGetOrFetchReportsLookups(t *testing.T) {
	var hits, misses int
	mc := NewMemoryCache(WithMemoryCleanup(0), WithLookupHook(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}))
	defer mc.Close()

	fetch := func(context.Context) (string, error) { return "v", nil }
	_, _ = GetOrFetch(context.Background(), mc, "k", time.Minute, fetch)
	_, _ = GetOrFetch(context.Background(), mc, "k", time.Minute, fetch)

	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, hits)
}

func TestSweepRemovesOnlyEntriesOlderThanTwiceTTL(t *testing.T) {
	clock := newFakeClock()
	mc := NewMemoryCache(WithClock(clock.Now), WithMemoryCleanup(0))
	defer mc.Close()

	mc.Set("old", 1, 10*time.Second)
	clock.Advance(15 * time.Second)
	mc.Set("young", 2, 10*time.Second)

	assert.Equal(t, 0, mc.Sweep(), "15s is expired but not past 2x ttl")
	assert.Equal(t, 2, mc.Len())

	clock.Advance(6 * time.Second)
	assert.Equal(t, 1, mc.Sweep())
	assert.Equal(t, 1, mc.Len())

	_, ok := mc.Get("old")
	assert.False(t, ok)
}

func TestJanitorSweepsInBackground(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(5 * time.Millisecond))
	defer mc.Close()

	mc.Set("k", 1, time.Millisecond)

	assert.Eventually(t, func() bool { return mc.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(time.Millisecond))
	require.NoError(t, mc.Close())
	require.NoError(t, mc.Close())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "fred:SOFR:90", Key("fred", "SOFR", 90))
	assert.Equal(t, "fxrates", Key("fxrates"))
}
