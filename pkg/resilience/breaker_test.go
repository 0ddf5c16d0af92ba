package resilience

import (
	"errors"
	"testing"
	"time"
)

func trip(b *Breaker, n int) {
	for i := 0; i < n; i++ {
		if b.Allow() == nil {
			b.Done(false)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestBreakerDefaults(t *testing.T) {
	b := NewBreaker(BreakerOpts{})
	if b.opts != DefaultBreakerOpts {
		t.Fatalf("opts = %+v, want defaults", b.opts)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %v", b.State())
	}
}

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Cooldown: time.Second})
	trip(b, 2)
	if b.State() != StateClosed {
		t.Fatalf("expected closed below threshold, got %v", b.State())
	}
	trip(b, 1)
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Cooldown: time.Second})
	trip(b, 2)
	_ = b.Allow()
	b.Done(true)
	trip(b, 2)
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %v", b.State())
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Cooldown: 5 * time.Second, HalfOpenMax: 1})
	b.now = func() time.Time { return now }

	trip(b, 2)
	now = now.Add(6 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %v", b.State())
	}

	if err := b.Allow(); err != nil {
		t.Fatalf("trial call rejected: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second trial call should be rejected, got %v", err)
	}
	b.Done(true)
	if b.State() != StateClosed {
		t.Fatalf("expected closed after trial success, got %v", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Cooldown: 5 * time.Second})
	b.now = func() time.Time { return now }

	trip(b, 2)
	now = now.Add(6 * time.Second)
	_ = b.Allow()
	b.Done(false)
	if b.State() != StateOpen {
		t.Fatalf("expected open after failed trial, got %v", b.State())
	}
}

func TestBreakerCancelFreesProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Cooldown: time.Second})
	b.now = func() time.Time { return now }

	trip(b, 1)
	now = now.Add(2 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatal(err)
	}
	b.Cancel()
	if err := b.Allow(); err != nil {
		t.Fatalf("trial call should be available again, got %v", err)
	}
}

func TestBreakersPerHost(t *testing.T) {
	r := NewBreakers(BreakerOpts{FailThreshold: 1, Cooldown: time.Minute})
	if r.For("a.example") != r.For("a.example") {
		t.Fatal("expected the same breaker for the same host")
	}
	trip(r.For("a.example"), 1)

	states := r.States()
	if states["a.example"] != StateOpen {
		t.Fatalf("a.example = %v, want open", states["a.example"])
	}
	if err := r.For("b.example").Allow(); err != nil {
		t.Fatalf("b.example should be unaffected: %v", err)
	}
}
