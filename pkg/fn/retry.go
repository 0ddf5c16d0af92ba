package fn

import (
	"context"
	"math/rand"
	"time"
)

// RetryOpts configures Retry.
type RetryOpts struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Jitter      bool
	// Retryable reports whether a failed attempt may be repeated. Nil retries
	// every error.
	Retryable func(error) bool
}

// Retry calls f until it succeeds, MaxAttempts is reached, Retryable refuses
// the error or ctx ends. Waits double from InitialWait up to MaxWait.
// MaxAttempts below one is treated as one.
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	attempts := max(opts.MaxAttempts, 1)
	wait := opts.InitialWait

	var r Result[T]
	for attempt := 1; ; attempt++ {
		r = f(ctx)
		_, err := r.Unwrap()
		if err == nil || attempt >= attempts {
			return r
		}
		if opts.Retryable != nil && !opts.Retryable(err) {
			return r
		}

		select {
		case <-ctx.Done():
			return Err[T](ctx.Err())
		case <-time.After(opts.backoff(wait)):
		}
		wait *= 2
		if opts.MaxWait > 0 {
			wait = min(wait, opts.MaxWait)
		}
	}
}

func (o RetryOpts) backoff(wait time.Duration) time.Duration {
	if o.Jitter {
		wait = time.Duration(float64(wait) * (0.5 + rand.Float64()))
	}
	if o.MaxWait > 0 && wait > o.MaxWait {
		wait = o.MaxWait
	}
	return wait
}
