package vitel

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOptions tune RetryHook
type RetryOptions struct {
	// Retries is how many times the hook is re-run after the first failure
	Retries int
	// Delay is the pause between runs
	Delay time.Duration
	// OnRetry is called before each re-run with the failed attempt number
	OnRetry func(attempt, retries int, err error)
}

// DefaultRetryOptions returns 10 retries 150ms apart
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{Retries: 10, Delay: 150 * time.Millisecond}
}

// RetryHook wraps hook so that a failing run is repeated at a constant delay
// until it succeeds, the retries are spent or ctx is done
func RetryHook(hook Hook, opts RetryOptions) Hook {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return func(ctx context.Context, s *Instance) error {
		attempt := 0
		var b backoff.BackOff = backoff.NewConstantBackOff(opts.Delay)
		b = backoff.WithMaxRetries(b, uint64(opts.Retries))
		b = backoff.WithContext(b, ctx)

		notify := func(err error, _ time.Duration) {
			if opts.OnRetry != nil {
				opts.OnRetry(attempt, opts.Retries, err)
			}
		}

		err := backoff.RetryNotify(func() error {
			attempt++
			return hook(ctx, s)
		}, b, notify)
		if err != nil {
			return fmt.Errorf("failed after %d attempts: %w", attempt, err)
		}
		return nil
	}
}
