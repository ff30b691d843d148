package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// RetryOption configures a Retrying completer.
type RetryOption func(*Retrying)

// WithRetryMaxAttempts overrides the default attempt count (defaults to 3).
func WithRetryMaxAttempts(attempts int) RetryOption {
	return func(r *Retrying) {
		r.maxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) RetryOption {
	return func(r *Retrying) {
		r.baseDelay = baseDelay
		r.maxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) RetryOption {
	return func(r *Retrying) {
		r.sleeper = sleeper
	}
}

// Retrying retries transient completion failures with exponential backoff.
// Rate limits, server errors, network timeouts and empty answers are retried;
// other client errors and context cancellation are returned immediately.
type Retrying struct {
	next        Completer
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleeper     func(time.Duration)
}

// NewRetrying wraps next with retry behaviour.
func NewRetrying(next Completer, opts ...RetryOption) *Retrying {
	r := &Retrying{
		next:        next,
		maxAttempts: defaultRetryAttempts,
		baseDelay:   defaultRetryBaseDelay,
		maxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Complete calls the wrapped completer until it succeeds or a non-retryable error occurs.
func (r *Retrying) Complete(ctx context.Context, prompt string) (string, error) {
	attempts := r.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := r.next.Complete(ctx, prompt)
		if err == nil {
			return out, nil
		}

		delay, retry := r.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			if attempt == 1 {
				return "", err
			}
			return "", fmt.Errorf("failed after %d attempts: %w", attempt, err)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return "", fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func (r *Retrying) attempts() int {
	if r.maxAttempts <= 0 {
		return 1
	}
	return r.maxAttempts
}

func (r *Retrying) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if !Retryable(err) {
		return 0, false
	}
	return r.backoffDelay(attempt), true
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyCompletion) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func (r *Retrying) backoffDelay(attempt int) time.Duration {
	if r.baseDelay <= 0 {
		return 0
	}
	if attempt <= 0 {
		attempt = 1
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := r.baseDelay
	for i := 1; i < attempt; i++ {
		if r.maxDelay > 0 && delay > r.maxDelay/2 {
			delay = r.maxDelay
			break
		}
		delay *= 2
	}
	if r.maxDelay > 0 && delay > r.maxDelay {
		return r.maxDelay
	}
	return delay
}

func (r *Retrying) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if r.sleeper != nil {
		r.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
