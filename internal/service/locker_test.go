package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"steamprofile-rest-api/internal/service"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerExcludesSameKey(t *testing.T) {
	t.Parallel()

	l := service.NewLocker()
	var inside, maxInside atomic.Int32

	var wg conc.WaitGroup
	for range 8 {
		wg.Go(func() {
			unlock, err := l.Lock(t.Context(), "a")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Zero(t, l.Len())
}

func TestLockerAllowsDifferentKeys(t *testing.T) {
	t.Parallel()

	l := service.NewLocker()
	unlockA, err := l.Lock(t.Context(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLockerHonorsContext(t *testing.T) {
	t.Parallel()

	l := service.NewLocker()
	unlock, err := l.Lock(t.Context(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Zero(t, l.Len())
}
