package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"steamprofile-rest-api/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTemporary = errors.New("temporary error")
	errFatal     = errors.New("fatal error")
)

func fastOptions(retries uint64) retry.Options {
	return retry.Options{
		MaxElapsedTime:  time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxRetries:      retries,
	}
}

func TestDo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		failures      int
		permanent     bool
		expectedCalls int
		expectedErr   error
	}{
		{name: "succeeds first try", failures: 0, expectedCalls: 1},
		{name: "succeeds after retries", failures: 2, expectedCalls: 3},
		{name: "fails all retries", failures: 10, expectedCalls: 4, expectedErr: errTemporary},
		{name: "permanent error stops", failures: 10, permanent: true, expectedCalls: 1, expectedErr: errFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			got, err := retry.Do(t.Context(), fastOptions(3), func() (string, error) {
				calls++
				if calls <= tt.failures {
					if tt.permanent {
						return "", retry.Permanent(errFatal)
					}
					return "", errTemporary
				}
				return "ok", nil
			})

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ok", got)
			}
			assert.Equal(t, tt.expectedCalls, calls)
		})
	}
}

func TestDoRespectsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := retry.Do(ctx, fastOptions(5), func() (int, error) {
		return 0, errTemporary
	})
	require.Error(t, err)
}
