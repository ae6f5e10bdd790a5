package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livesync/pkg/cache"
)

// --- Memory: Get ---

func TestMemory_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		_, err := c.Get(context.Background(), "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns stored value while fresh", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", 42, time.Minute))

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, 42, val)
	})

	t.Run("returns ErrNotFound once TTL elapsed", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", time.Millisecond))

		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("expired entry is evicted on access", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		evicted := 0
		c.SetEvictCallback(func(string, string) { evicted++ })

		_, err := c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
		require.Equal(t, 1, evicted)

		// Second access finds nothing left to evict.
		_, err = c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
		require.Equal(t, 1, evicted)
	})

	t.Run("negative TTL never expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", -1))

		time.Sleep(5 * time.Millisecond)

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "value", val)
	})

	t.Run("marks entry as recently used", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithMaxEntries(2))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "a", "1", time.Minute))
		require.NoError(t, c.Set(ctx, "b", "2", time.Minute))

		_, err := c.Get(ctx, "a")
		require.NoError(t, err)

		// Adding "c" evicts the LRU entry "b", not the freshly used "a".
		require.NoError(t, c.Set(ctx, "c", "3", time.Minute))

		has, err := c.Has(ctx, "a")
		require.NoError(t, err)
		require.True(t, has)

		has, err = c.Has(ctx, "b")
		require.NoError(t, err)
		require.False(t, has)
	})
}

// --- Memory: Set ---

func TestMemory_Set(t *testing.T) {
	t.Parallel()

	t.Run("overwrite restarts freshness", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "old", 30*time.Millisecond))
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, c.Set(ctx, "key", "new", 30*time.Millisecond))
		time.Sleep(20 * time.Millisecond)

		// The overwrite reset storedAt, so the entry is still fresh.
		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "new", val)
	})

	t.Run("zero TTL uses default", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithDefaultTTL(20*time.Millisecond), cache.WithCleanupInterval(0))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", 0))

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "value", val)

		time.Sleep(30 * time.Millisecond)

		_, err = c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns ErrClosed after Close", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		require.NoError(t, c.Close())

		err := c.Set(context.Background(), "key", "value", time.Minute)
		require.ErrorIs(t, err, cache.ErrClosed)
	})
}

// --- Memory: DeletePrefix ---

func TestMemory_DeletePrefix(t *testing.T) {
	t.Parallel()

	t.Run("removes only matching keys", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "validate:SAVE10:a", "1", time.Minute))
		require.NoError(t, c.Set(ctx, "validate:SAVE10:b", "2", time.Minute))
		require.NoError(t, c.Set(ctx, "validate:OTHER:a", "3", time.Minute))
		require.NoError(t, c.Set(ctx, "coupon:SAVE10", "4", time.Minute))

		require.NoError(t, c.DeletePrefix(ctx, "validate:SAVE10:"))

		for _, key := range []string{"validate:SAVE10:a", "validate:SAVE10:b"} {
			_, err := c.Get(ctx, key)
			require.ErrorIs(t, err, cache.ErrNotFound, key)
		}
		for _, key := range []string{"validate:OTHER:a", "coupon:SAVE10"} {
			_, err := c.Get(ctx, key)
			require.NoError(t, err, key)
		}
	})

	t.Run("empty prefix removes everything", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "a", "1", time.Minute))
		require.NoError(t, c.Set(ctx, "b", "2", time.Minute))

		require.NoError(t, c.DeletePrefix(ctx, ""))

		_, err := c.Get(ctx, "a")
		require.ErrorIs(t, err, cache.ErrNotFound)
		_, err = c.Get(ctx, "b")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})
}

// --- Memory: janitor ---

func TestMemory_Janitor(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string](cache.WithCleanupInterval(10 * time.Millisecond))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "key", "value", time.Millisecond))

	var evicted atomic.Int32
	c.SetEvictCallback(func(string, string) { evicted.Add(1) })

	require.Eventually(t, func() bool {
		return evicted.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

// --- GetOrSet ---

func TestGetOrSet(t *testing.T) {
	t.Parallel()

	t.Run("returns cached value without calling loader", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "cached", time.Minute))

		val, err := cache.GetOrSet(ctx, c, "key", func(context.Context) (string, time.Duration, error) {
			t.Fatal("loader must not be called on a hit")
			return "", 0, nil
		})
		require.NoError(t, err)
		require.Equal(t, "cached", val)
	})

	t.Run("loads and caches on miss", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		ctx := context.Background()
		val, err := cache.GetOrSet(ctx, c, "load-on-miss", func(context.Context) (string, time.Duration, error) {
			return "loaded", time.Minute, nil
		})
		require.NoError(t, err)
		require.Equal(t, "loaded", val)

		stored, err := c.Get(ctx, "load-on-miss")
		require.NoError(t, err)
		require.Equal(t, "loaded", stored)
	})

	t.Run("loader error is not cached", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		ctx := context.Background()
		boom := errors.New("boom")

		_, err := cache.GetOrSet(ctx, c, "load-error", func(context.Context) (string, time.Duration, error) {
			return "", 0, boom
		})
		require.ErrorIs(t, err, boom)

		_, err = c.Get(ctx, "load-error")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("concurrent misses share one loader call", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		ctx := context.Background()
		var calls atomic.Int32
		release := make(chan struct{})

		const n = 10
		var wg sync.WaitGroup
		results := make([]string, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				val, err := cache.GetOrSet(ctx, c, "stampede", func(context.Context) (string, time.Duration, error) {
					calls.Add(1)
					<-release
					return "shared", time.Minute, nil
				})
				require.NoError(t, err)
				results[i] = val
			}()
		}

		// Let all goroutines reach singleflight before releasing the loader.
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		require.Equal(t, int32(1), calls.Load())
		for _, r := range results {
			require.Equal(t, "shared", r)
		}
	})

	t.Run("distinct caches never share a flight for one key", func(t *testing.T) {
		t.Parallel()

		strs := cache.NewMemory[[]string]()
		defer strs.Close()
		ints := cache.NewMemory[[]int]()
		defer ints.Close()

		ctx := context.Background()
		release := make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := cache.GetOrSet(ctx, strs, "list:", func(context.Context) ([]string, time.Duration, error) {
				<-release
				return []string{"a"}, time.Minute, nil
			})
			require.NoError(t, err)
			require.Equal(t, []string{"a"}, val)
		}()

		// While the string load is in flight, the same key against a cache of
		// another value type must run its own loader, not join the flight.
		time.Sleep(20 * time.Millisecond)
		val, err := cache.GetOrSet(ctx, ints, "list:", func(context.Context) ([]int, time.Duration, error) {
			return []int{1}, time.Minute, nil
		})
		require.NoError(t, err)
		require.Equal(t, []int{1}, val)

		close(release)
		wg.Wait()
	})
}
