package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Options contains configuration for retry behavior.
type Options struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint64
}

// CollaboratorOptions returns options for profile page and resolver fetches.
func CollaboratorOptions(maxRetries uint64) Options {
	return Options{
		MaxElapsedTime:  20 * time.Second,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     4 * time.Second,
		MaxRetries:      maxRetries,
	}
}

// Permanent wraps err so Do stops retrying immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do executes operation with exponential backoff. Errors wrapped with
// Permanent are returned unwrapped without further attempts.
func Do[T any](ctx context.Context, opts Options, operation func() (T, error)) (T, error) {
	var result T

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(opts.MaxElapsedTime),
		backoff.WithInitialInterval(opts.InitialInterval),
		backoff.WithMaxInterval(opts.MaxInterval),
	), opts.MaxRetries)

	err := backoff.Retry(func() error {
		var err error
		result, err = operation()
		return err
	}, backoff.WithContext(b, ctx))

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return result, perm.Err
	}
	return result, err
}
