package coalesce_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/livesync/pkg/cache"
	"github.com/dmitrymomot/livesync/pkg/coalesce"
)

func TestGroup_Do(t *testing.T) {
	t.Parallel()

	t.Run("burst within window produces one call with shared outcome", func(t *testing.T) {
		t.Parallel()

		g := coalesce.New[string](coalesce.WithWindow[string](50 * time.Millisecond))
		defer g.Close()

		var calls atomic.Int32
		produce := func(context.Context) (string, error) {
			calls.Add(1)
			return "result", nil
		}

		const n = 8
		var wg sync.WaitGroup
		results := make([]string, n)
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = g.Do(context.Background(), "SAVE10", produce)
			}()
		}
		wg.Wait()

		require.Equal(t, int32(1), calls.Load())
		for i := range n {
			require.NoError(t, errs[i])
			require.Equal(t, "result", results[i])
		}
	})

	t.Run("producer error reaches every waiter and is not cached", func(t *testing.T) {
		t.Parallel()

		results := cache.NewMemory[string]()
		defer results.Close()

		g := coalesce.New[string](
			coalesce.WithWindow[string](20*time.Millisecond),
			coalesce.WithCache(results, time.Minute),
		)
		defer g.Close()

		boom := errors.New("validation backend down")
		var calls atomic.Int32
		failing := func(context.Context) (string, error) {
			calls.Add(1)
			return "", boom
		}

		var wg sync.WaitGroup
		errs := make([]error, 3)
		for i := range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = g.Do(context.Background(), "key", failing)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.ErrorIs(t, err, boom)
		}
		require.Equal(t, int32(1), calls.Load())

		_, err := results.Get(context.Background(), "key")
		require.ErrorIs(t, err, cache.ErrNotFound, "errors must be retried, not remembered")

		// A later call starts a fresh window and retries.
		val, err := g.Do(context.Background(), "key", func(context.Context) (string, error) {
			return "recovered", nil
		})
		require.NoError(t, err)
		require.Equal(t, "recovered", val)
	})

	t.Run("cache hit bypasses the window", func(t *testing.T) {
		t.Parallel()

		results := cache.NewMemory[string]()
		defer results.Close()

		ctx := context.Background()
		require.NoError(t, results.Set(ctx, "known", "cached", time.Minute))

		g := coalesce.New[string](
			coalesce.WithWindow[string](time.Hour), // would hang if the window were entered
			coalesce.WithCache(results, time.Minute),
		)
		defer g.Close()

		val, err := g.Do(ctx, "known", func(context.Context) (string, error) {
			t.Error("producer must not run on a cache hit")
			return "", nil
		})
		require.NoError(t, err)
		require.Equal(t, "cached", val)
	})

	t.Run("successful result populates the cache", func(t *testing.T) {
		t.Parallel()

		results := cache.NewMemory[string]()
		defer results.Close()

		g := coalesce.New[string](
			coalesce.WithWindow[string](10*time.Millisecond),
			coalesce.WithCache(results, time.Minute),
		)
		defer g.Close()

		ctx := context.Background()
		val, err := g.Do(ctx, "key", func(context.Context) (string, error) {
			return "fresh", nil
		})
		require.NoError(t, err)
		require.Equal(t, "fresh", val)

		cached, err := results.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "fresh", cached)
	})

	t.Run("late joiner during in-flight producer shares the outcome", func(t *testing.T) {
		t.Parallel()

		g := coalesce.New[string](coalesce.WithWindow[string](10 * time.Millisecond))
		defer g.Close()

		started := make(chan struct{})
		release := make(chan struct{})
		var calls atomic.Int32
		produce := func(context.Context) (string, error) {
			calls.Add(1)
			close(started)
			<-release
			return "shared", nil
		}

		first := make(chan string, 1)
		go func() {
			val, err := g.Do(context.Background(), "key", produce)
			require.NoError(t, err)
			first <- val
		}()

		// Wait for the window to fire and the producer to be in flight,
		// then join the same pending call.
		<-started
		second := make(chan string, 1)
		go func() {
			val, err := g.Do(context.Background(), "key", func(context.Context) (string, error) {
				t.Error("second producer must not run")
				return "", nil
			})
			require.NoError(t, err)
			second <- val
		}()

		time.Sleep(20 * time.Millisecond)
		close(release)

		require.Equal(t, "shared", <-first)
		require.Equal(t, "shared", <-second)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("distinct keys do not coalesce", func(t *testing.T) {
		t.Parallel()

		g := coalesce.New[string](coalesce.WithWindow[string](20 * time.Millisecond))
		defer g.Close()

		var calls atomic.Int32
		var wg sync.WaitGroup
		for _, key := range []string{"a", "b"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				val, err := g.Do(context.Background(), key, func(context.Context) (string, error) {
					calls.Add(1)
					return key, nil
				})
				require.NoError(t, err)
				require.Equal(t, key, val)
			}()
		}
		wg.Wait()

		require.Equal(t, int32(2), calls.Load())
	})

	t.Run("canceled waiter abandons without killing the call", func(t *testing.T) {
		t.Parallel()

		g := coalesce.New[string](coalesce.WithWindow[string](30 * time.Millisecond))
		defer g.Close()

		ctx, cancel := context.WithCancel(context.Background())

		abandoned := make(chan error, 1)
		go func() {
			_, err := g.Do(ctx, "key", func(context.Context) (string, error) {
				return "outcome", nil
			})
			abandoned <- err
		}()

		time.Sleep(5 * time.Millisecond)
		cancel()
		require.ErrorIs(t, <-abandoned, context.Canceled)

		// A second waiter registered before the window fires still gets
		// the first caller's producer outcome.
		val, err := g.Do(context.Background(), "key", func(context.Context) (string, error) {
			return "other", nil
		})
		require.NoError(t, err)
		require.Equal(t, "outcome", val)
	})
}

func TestGroup_Close(t *testing.T) {
	t.Parallel()

	t.Run("fails pending waiters with ErrClosed", func(t *testing.T) {
		t.Parallel()

		g := coalesce.New[string](coalesce.WithWindow[string](time.Hour))

		done := make(chan error, 1)
		go func() {
			_, err := g.Do(context.Background(), "key", func(context.Context) (string, error) {
				return "never", nil
			})
			done <- err
		}()

		require.Eventually(t, func() bool { return g.Len() == 1 }, time.Second, time.Millisecond)
		require.NoError(t, g.Close())
		require.ErrorIs(t, <-done, coalesce.ErrClosed)
	})

	t.Run("Do after Close returns ErrClosed", func(t *testing.T) {
		t.Parallel()

		g := coalesce.New[string]()
		require.NoError(t, g.Close())

		_, err := g.Do(context.Background(), "key", func(context.Context) (string, error) {
			return "", nil
		})
		require.ErrorIs(t, err, coalesce.ErrClosed)
	})

	t.Run("Close is idempotent", func(t *testing.T) {
		t.Parallel()

		g := coalesce.New[string]()
		require.NoError(t, g.Close())
		require.NoError(t, g.Close())
	})
}
