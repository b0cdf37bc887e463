package steamapi_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"steamprofile-rest-api/internal/steamapi"

	"github.com/jonboulle/clockwork"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterFirstCallIsImmediate(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	l := steamapi.NewLimiterWithClock(1500*time.Millisecond, clock)

	start, err := l.Wait(t.Context())
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), start)
}

func TestLimiterSpacesCallsWithFakeClock(t *testing.T) {
	t.Parallel()

	interval := 1500 * time.Millisecond
	clock := clockwork.NewFakeClock()
	l := steamapi.NewLimiterWithClock(interval, clock)
	ctx := t.Context()

	first, err := l.Wait(ctx)
	require.NoError(t, err)

	clock.Advance(500 * time.Millisecond)

	done := make(chan time.Time, 1)
	go func() {
		start, err := l.Wait(ctx)
		assert.NoError(t, err)
		done <- start
	}()

	// The second caller sleeps for the remaining 1000ms.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	select {
	case <-done:
		t.Fatal("second call admitted before the interval elapsed")
	default:
	}

	clock.Advance(999 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("second call admitted before the interval elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(time.Millisecond)
	second := <-done
	assert.Equal(t, interval, second.Sub(first))
}

func TestLimiterCancelledWaitKeepsLastCall(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	l := steamapi.NewLimiterWithClock(time.Second, clock)

	first, err := l.Wait(t.Context())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() {
		_, err := l.Wait(ctx)
		errCh <- err
	}()

	require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, first, l.LastCall())
}

func TestLimiterAdmitsInArrivalOrder(t *testing.T) {
	t.Parallel()

	const waiters = 6
	interval := time.Second
	clock := clockwork.NewFakeClock()
	l := steamapi.NewLimiterWithClock(interval, clock)
	ctx := t.Context()

	_, err := l.Wait(ctx)
	require.NoError(t, err)

	admitted := make(chan int, waiters)
	for i := range waiters {
		go func() {
			_, err := l.Wait(ctx)
			assert.NoError(t, err)
			admitted <- i
		}()
		if i == 0 {
			// The first waiter holds the turn and sleeps on the clock.
			require.NoError(t, clock.BlockUntilContext(ctx, 1))
		} else {
			// Later waiters queue behind it; stagger their arrival.
			time.Sleep(20 * time.Millisecond)
		}
	}

	order := make([]int, 0, waiters)
	for range waiters {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(interval)
		order = append(order, <-admitted)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, order)
}

func TestLimiterSpacingUnderConcurrency(t *testing.T) {
	t.Parallel()

	interval := 20 * time.Millisecond
	l := steamapi.NewLimiter(interval)

	var (
		mu     sync.Mutex
		starts []time.Time
		wg     conc.WaitGroup
	)
	for range 8 {
		wg.Go(func() {
			start, err := l.Wait(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			starts = append(starts, start)
			mu.Unlock()
		})
	}
	wg.Wait()

	require.Len(t, starts, 8)
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	for i := 1; i < len(starts); i++ {
		assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), interval)
	}
}
