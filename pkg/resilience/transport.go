package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lemmylite/lemmy-lite/pkg/fn"
)

// StatusError is a retryable upstream status seen on a non-final attempt.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string { return fmt.Sprintf("upstream status %d", e.Status) }

// TransportOpts configures Transport. Nil members are disabled.
type TransportOpts struct {
	Limiter  *HostLimiter
	Breakers *Breakers
	// Retry applies to GET only. MaxAttempts <= 1 means a single attempt.
	Retry fn.RetryOpts
}

// Transport is an http.RoundTripper that rate-limits, circuit-breaks and
// optionally retries outbound calls, keyed by request host.
type Transport struct {
	base http.RoundTripper
	opts TransportOpts
}

// NewTransport wraps base, or http.DefaultTransport when base is nil.
func NewTransport(base http.RoundTripper, opts TransportOpts) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, opts: opts}
}

// RoundTrip implements http.RoundTripper. On the final attempt a 5xx response
// is returned as is so the caller sees the real status.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	opts := t.opts.Retry
	if opts.MaxAttempts < 1 || req.Method != http.MethodGet {
		opts.MaxAttempts = 1
	}
	if opts.Retryable == nil {
		opts.Retryable = Retryable
	}

	attempt := 0
	return fn.Retry(req.Context(), opts, func(ctx context.Context) fn.Result[*http.Response] {
		attempt++
		resp, err := t.once(req.Clone(ctx))
		if err != nil {
			return fn.Err[*http.Response](err)
		}
		if retryableStatus(resp.StatusCode) && attempt < opts.MaxAttempts {
			drain(resp)
			return fn.Err[*http.Response](&StatusError{Status: resp.StatusCode})
		}
		return fn.Ok(resp)
	}).Unwrap()
}

func (t *Transport) once(req *http.Request) (*http.Response, error) {
	host := req.URL.Host
	if t.opts.Limiter != nil {
		if err := t.opts.Limiter.Wait(req.Context(), host); err != nil {
			return nil, err
		}
	}

	var b *Breaker
	if t.opts.Breakers != nil {
		b = t.opts.Breakers.For(host)
		if err := b.Allow(); err != nil {
			return nil, fmt.Errorf("%s: %w", host, err)
		}
	}

	resp, err := t.base.RoundTrip(req)
	if b != nil {
		switch {
		case err != nil && req.Context().Err() != nil:
			b.Cancel()
		case err != nil:
			b.Done(false)
		default:
			b.Done(resp.StatusCode < http.StatusInternalServerError)
		}
	}
	return resp, err
}

// Retryable reports whether a failed attempt may be repeated. Open breakers
// and cancelled contexts are final.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrCircuitOpen),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	resp.Body.Close()
}
