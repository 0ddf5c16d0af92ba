package lemmy

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lemmylite/lemmy-lite/pkg/fn"
	"github.com/lemmylite/lemmy-lite/pkg/metrics"
	"github.com/lemmylite/lemmy-lite/pkg/resilience"
)

// Policy is the outbound behavior shared by every call to every instance.
type Policy struct {
	Timeout          time.Duration
	RPS              float64
	Burst            int
	Attempts         int
	BreakerThreshold int
	BreakerCooldown  time.Duration

	// Base is the innermost transport; nil clones http.DefaultTransport.
	Base http.RoundTripper
}

// DefaultPolicy has a single attempt per call.
var DefaultPolicy = Policy{
	Timeout:          10 * time.Second,
	RPS:              5,
	Burst:            10,
	Attempts:         1,
	BreakerThreshold: resilience.DefaultBreakerOpts.FailThreshold,
	BreakerCooldown:  resilience.DefaultBreakerOpts.Cooldown,
}

// NewHTTPClient builds the process-wide client. From the outside in:
// tracing, per-host rate limit, breaker and retry, then per-attempt metrics.
// reg may be nil.
func NewHTTPClient(p Policy, reg *metrics.Registry) (*http.Client, *resilience.Breakers) {
	base := p.Base
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	if reg != nil {
		base = metrics.InstrumentTransport(reg, base)
	}

	breakers := resilience.NewBreakers(resilience.BreakerOpts{
		FailThreshold: p.BreakerThreshold,
		Cooldown:      p.BreakerCooldown,
	})
	rt := resilience.NewTransport(base, resilience.TransportOpts{
		Limiter:  resilience.NewHostLimiter(p.RPS, p.Burst),
		Breakers: breakers,
		Retry: fn.RetryOpts{
			MaxAttempts: p.Attempts,
			InitialWait: 250 * time.Millisecond,
			MaxWait:     2 * time.Second,
			Jitter:      true,
		},
	})

	return &http.Client{
		Timeout:   p.Timeout,
		Transport: otelhttp.NewTransport(rt),
	}, breakers
}
