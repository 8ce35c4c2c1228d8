package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheckAndIncrement_Windowing(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }

	store := NewMemoryStore().WithClock(clock)
	limiter := NewLimiter(store).WithClock(clock)
	policy := Policy{MaxRequests: 3, Window: time.Minute}
	key := Key("login", "203.0.113.5")

	for i := 0; i < 3; i++ {
		res, err := limiter.CheckAndIncrement(context.Background(), key, policy)
		require.NoError(t, err)
		require.True(t, res.Allowed, "call %d", i+1)
		require.Equal(t, 3-(i+1), res.Remaining)
	}

	res, err := limiter.CheckAndIncrement(context.Background(), key, policy)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Greater(t, res.RetryAfter, 0)

	// After the window elapses a fresh count starts.
	now = now.Add(time.Minute + time.Second)
	res, err = limiter.CheckAndIncrement(context.Background(), key, policy)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, 2, res.Remaining)
}

func TestCheckAndIncrement_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	limiter := NewLimiter(store)
	policy := Policy{MaxRequests: 1, Window: time.Minute}

	res, err := limiter.CheckAndIncrement(context.Background(), Key("login", "10.0.0.1"), policy)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.CheckAndIncrement(context.Background(), Key("login", "10.0.0.1"), policy)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	res, err = limiter.CheckAndIncrement(context.Background(), Key("login", "10.0.0.2"), policy)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.CheckAndIncrement(context.Background(), Key("search", "10.0.0.1"), policy)
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, _, err := store.Incr(context.Background(), "shared", time.Minute)
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	count, _, err := store.Incr(context.Background(), "shared", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(goroutines*perGoroutine+1), count)
}

func TestMemoryStore_SweepRemovesExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := NewMemoryStore().WithClock(func() time.Time { return now })

	_, _, err := store.Incr(context.Background(), "a", time.Minute)
	require.NoError(t, err)
	_, _, err = store.Incr(context.Background(), "b", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	now = now.Add(2 * time.Minute)
	store.sweep()
	require.Equal(t, 1, store.Len())
}

func TestCheckAndIncrement_RetryAfterRoundsUp(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }
	store := NewMemoryStore().WithClock(clock)
	limiter := NewLimiter(store).WithClock(clock)
	policy := Policy{MaxRequests: 1, Window: 90 * time.Second}

	_, err := limiter.CheckAndIncrement(context.Background(), "k", policy)
	require.NoError(t, err)

	now = now.Add(89500 * time.Millisecond)
	res, err := limiter.CheckAndIncrement(context.Background(), "k", policy)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 1, res.RetryAfter)
}
