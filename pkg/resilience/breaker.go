// Package resilience protects outbound calls to remote instances with a
// per-host circuit breaker, rate limiter and retry policy.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed   State = iota // normal operation
	StateOpen                  // rejecting calls
	StateHalfOpen              // allowing trial calls
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned while a host's breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerOpts configures a circuit breaker.
type BreakerOpts struct {
	// FailThreshold is how many consecutive failures trip the breaker.
	FailThreshold int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// HalfOpenMax is the number of trial calls allowed while half-open.
	HalfOpenMax int
}

// DefaultBreakerOpts trips after five straight failures for thirty seconds.
var DefaultBreakerOpts = BreakerOpts{
	FailThreshold: 5,
	Cooldown:      30 * time.Second,
	HalfOpenMax:   1,
}

func (o BreakerOpts) withDefaults() BreakerOpts {
	if o.FailThreshold <= 0 {
		o.FailThreshold = DefaultBreakerOpts.FailThreshold
	}
	if o.Cooldown <= 0 {
		o.Cooldown = DefaultBreakerOpts.Cooldown
	}
	if o.HalfOpenMax <= 0 {
		o.HalfOpenMax = DefaultBreakerOpts.HalfOpenMax
	}
	return o
}

// Breaker is a closed/open/half-open circuit breaker. Callers ask Allow
// before an attempt and report its outcome with Done, so the outcome can be
// judged after the call returns (e.g. from an HTTP status).
type Breaker struct {
	mu       sync.Mutex
	opts     BreakerOpts
	state    State
	failures int
	openedAt time.Time
	trials   int
	now      func() time.Time
}

// NewBreaker creates a circuit breaker with the given options.
func NewBreaker(opts BreakerOpts) *Breaker {
	return &Breaker{opts: opts.withDefaults(), now: time.Now}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// currentState moves open to half-open once the cooldown elapsed. Must hold mu.
func (b *Breaker) currentState() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.opts.Cooldown {
		b.state = StateHalfOpen
		b.trials = 0
	}
	return b.state
}

// Allow reserves an attempt or returns ErrCircuitOpen.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.trials >= b.opts.HalfOpenMax {
			return ErrCircuitOpen
		}
		b.trials++
	}
	return nil
}

// Done records the outcome of an attempt reserved with Allow.
func (b *Breaker) Done(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ok {
		if b.state == StateHalfOpen {
			b.state = StateClosed
		}
		b.failures = 0
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.opts.FailThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
		b.failures = 0
		b.trials = 0
	}
}

// Cancel releases an attempt reserved with Allow without recording an
// outcome, for calls abandoned by their caller.
func (b *Breaker) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.trials > 0 {
		b.trials--
	}
}

// Breakers hands out one Breaker per host.
type Breakers struct {
	mu    sync.Mutex
	opts  BreakerOpts
	hosts map[string]*Breaker
	now   func() time.Time
}

// NewBreakers creates an empty per-host registry.
func NewBreakers(opts BreakerOpts) *Breakers {
	return &Breakers{opts: opts.withDefaults(), hosts: make(map[string]*Breaker), now: time.Now}
}

// For returns the breaker for host, creating it on first use.
func (r *Breakers) For(host string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.hosts[host]
	if !ok {
		b = &Breaker{opts: r.opts, now: r.now}
		r.hosts[host] = b
	}
	return b
}

// States snapshots the state of every known host.
func (r *Breakers) States() map[string]State {
	r.mu.Lock()
	hosts := make(map[string]*Breaker, len(r.hosts))
	for h, b := range r.hosts {
		hosts[h] = b
	}
	r.mu.Unlock()

	out := make(map[string]State, len(hosts))
	for h, b := range hosts {
		out[h] = b.State()
	}
	return out
}
