package llm

import (
	"context"
	"log/slog"
	"time"
)

// CallTracker records completion calls for product analytics.
type CallTracker interface {
	IsEnabled() bool
	TrackLLMCall(ctx context.Context, model string, operation string, tokens int, latencyMs int64, cost float64) error
}

type operationKey struct{}

// WithOperation tags ctx with the classifier operation being performed, so
// tracing can attribute latency per operation.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFrom returns the operation tag set by WithOperation.
func OperationFrom(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok {
		return op
	}
	return "completion"
}

// TracedCompleter logs latency and estimated tokens for each call and
// forwards them to an optional tracker.
type TracedCompleter struct {
	next    Completer
	model   string
	log     *slog.Logger
	tracker CallTracker
}

// NewTracedCompleter wraps next. tracker may be nil.
func NewTracedCompleter(next Completer, model string, log *slog.Logger, tracker CallTracker) *TracedCompleter {
	if log == nil {
		log = slog.Default()
	}
	return &TracedCompleter{next: next, model: model, log: log, tracker: tracker}
}

// Complete forwards the call and records its latency.
func (tc *TracedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	op := OperationFrom(ctx)
	startTime := time.Now()

	result, err := tc.next.Complete(ctx, prompt)

	latencyMs := time.Since(startTime).Milliseconds()
	tokens := estimateTokens(prompt, result)

	if err != nil {
		tc.log.Debug("completion failed",
			"model", tc.model,
			"operation", op,
			"latency_ms", latencyMs,
			"error", err)
	} else {
		tc.log.Debug("completion",
			"model", tc.model,
			"operation", op,
			"latency_ms", latencyMs,
			"tokens", tokens)
	}

	if tc.tracker != nil && tc.tracker.IsEnabled() {
		_ = tc.tracker.TrackLLMCall(ctx, tc.model, op, tokens, latencyMs, 0)
	}

	return result, err
}

// estimateTokens provides a rough token count (~4 characters per token).
func estimateTokens(prompt, completion string) int {
	return (len(prompt) + len(completion)) / 4
}
