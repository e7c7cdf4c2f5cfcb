package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps an Adapter with a token-bucket limiter so one slow or
// abusive caller can't exhaust a provider's own rate limit for everyone
// sharing this process.
type RateLimited struct {
	inner   Adapter
	limiter *rate.Limiter
}

// NewRateLimited allows up to burst requests immediately and refills at
// ratePerSecond thereafter.
func NewRateLimited(inner Adapter, ratePerSecond float64, burst int) *RateLimited {
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

func (r *RateLimited) Name() string        { return r.inner.Name() }
func (r *RateLimited) Models() []ModelInfo { return r.inner.Models() }

func (r *RateLimited) Stream(ctx context.Context, messages []Message, modelID string, capability Capability) <-chan StreamEvent {
	if err := r.limiter.Wait(ctx); err != nil {
		ch := make(chan StreamEvent, 1)
		ch <- errorEvent(ErrorRateLimit, "provider rate limit exceeded: "+err.Error())
		close(ch)
		return ch
	}
	return r.inner.Stream(ctx, messages, modelID, capability)
}

var _ Adapter = (*RateLimited)(nil)
