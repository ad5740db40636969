package llm

import (
	"context"
	"time"

	"formchat-be/pkg/metrics"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout        = 20 * time.Second
	DefaultMaxRetries     = 2
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
)

// Policy bounds every LLM call: per-attempt timeout, retry count with
// exponential backoff, and a shared rate limiter.
type Policy struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	limiter *rate.Limiter
}

// NewPolicy builds a policy. rps <= 0 disables rate limiting.
func NewPolicy(timeout time.Duration, maxRetries int, rps float64, burst int) *Policy {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &Policy{
		Timeout:        timeout,
		MaxRetries:     maxRetries,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		limiter:        rate.NewLimiter(limit, burst),
	}
}

func DefaultPolicy() *Policy {
	return NewPolicy(DefaultTimeout, DefaultMaxRetries, 0, 1)
}

// Do runs call until it succeeds, fails with a non-retryable kind, or the
// attempts are exhausted. The returned error is always an *Error.
func (p *Policy) Do(ctx context.Context, provider string, call func(ctx context.Context) (string, error)) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.MaxInterval = p.MaxBackoff

	op := func() (string, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", backoff.Permanent(NewError(KindTimeout, provider, err))
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		defer cancel()

		start := time.Now()
		out, err := call(attemptCtx)
		metrics.LLMDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.LLMRequests.WithLabelValues("ok").Inc()
			return out, nil
		}

		e := classify(provider, err)
		metrics.LLMRequests.WithLabelValues(string(e.Kind)).Inc()
		if !e.Kind.Retryable() {
			return "", backoff.Permanent(e)
		}
		return "", e
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxRetries+1)),
	)
	if err != nil {
		return "", classify(provider, err)
	}
	return out, nil
}
