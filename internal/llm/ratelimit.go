package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited spaces calls to the wrapped completer. It is shared by all
// workers of a batch, so concurrency never exceeds the provider quota.
type RateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// NewRateLimited allows rps requests per second with the given burst.
// A non-positive rps disables limiting.
func NewRateLimited(next Completer, rps float64, burst int) *RateLimited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Complete waits for a token and forwards the call.
func (r *RateLimited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.Complete(ctx, prompt)
}

// NewLimitedRetrying retries over a rate-limited next, so every attempt,
// including each retry, waits for its own limiter token.
func NewLimitedRetrying(next Completer, rps float64, burst int, opts ...RetryOption) *Retrying {
	return NewRetrying(NewRateLimited(next, rps, burst), opts...)
}
