// Package observability sends product analytics events to PostHog.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/posthog/posthog-go"

	"murmur/internal/config"
)

const systemID = "murmur"

// PostHogClient wraps the PostHog SDK for product analytics
type PostHogClient struct {
	client  posthog.Client
	enabled bool
	log     *slog.Logger
}

// EventProperties contains properties for an event
type EventProperties map[string]interface{}

// NewPostHogClient creates a PostHog client. A disabled configuration yields
// a client whose methods are no-ops.
func NewPostHogClient(cfg config.PostHog) (*PostHogClient, error) {
	if !cfg.Enabled {
		return &PostHogClient{
			enabled: false,
			log:     slog.Default(),
		}, nil
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("PostHog enabled but missing API key")
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Endpoint: cfg.Host,
		Interval: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PostHog client: %w", err)
	}

	return &PostHogClient{
		client:  client,
		enabled: true,
		log:     slog.Default(),
	}, nil
}

// IsEnabled returns whether PostHog tracking is enabled
func (p *PostHogClient) IsEnabled() bool {
	return p != nil && p.enabled
}

// Capture sends an event to PostHog
func (p *PostHogClient) Capture(ctx context.Context, distinctID string, event string, properties EventProperties) error {
	if !p.IsEnabled() {
		return nil
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}

	if err := p.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: props,
	}); err != nil {
		p.log.Debug("PostHog enqueue failed", "event", event, "error", err)
		return err
	}
	return nil
}

// TrackLLMCall tracks classifier calls for cost and latency monitoring
func (p *PostHogClient) TrackLLMCall(ctx context.Context, model string, operation string, tokens int, latencyMs int64, cost float64) error {
	return p.Capture(ctx, systemID, "llm_call", EventProperties{
		"model":      model,
		"operation":  operation, // "language", "translate", "sentiment", ...
		"tokens":     tokens,
		"latency_ms": latencyMs,
		"cost":       cost,
	})
}

// TrackVideoProcessed tracks the outcome of one video run
func (p *PostHogClient) TrackVideoProcessed(ctx context.Context, runID, videoID string, enriched, skipped, failed int, duration time.Duration, successful bool) error {
	return p.Capture(ctx, systemID, "video_processed", EventProperties{
		"run_id":      runID,
		"video_id":    videoID,
		"enriched":    enriched,
		"skipped":     skipped,
		"failed":      failed,
		"duration_ms": duration.Milliseconds(),
		"successful":  successful,
	})
}

// TrackError tracks when an error occurs
func (p *PostHogClient) TrackError(ctx context.Context, errorType string, errorMessage string, component string) error {
	return p.Capture(ctx, systemID, "error_occurred", EventProperties{
		"error_type":    errorType,
		"error_message": errorMessage,
		"component":     component,
	})
}

// Shutdown flushes pending events and closes the client
func (p *PostHogClient) Shutdown(ctx context.Context) error {
	if !p.IsEnabled() {
		return nil
	}

	return p.client.Close()
}
