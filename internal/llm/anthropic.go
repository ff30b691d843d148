package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient completes prompts with the Anthropic messages API.
type AnthropicClient struct {
	client      *anthropic.Client
	model       anthropic.Model
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewAnthropicClient creates an Anthropic-backed completer.
func NewAnthropicClient(cfg Config) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicClient{
		client:      &client,
		model:       anthropic.Model(cfg.Model),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
}

// Complete sends prompt as a single user message and concatenates the text blocks.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(c.maxTokens),
		Temperature: anthropic.Float(float64(c.temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: ProviderAnthropic, StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyCompletion
	}
	return b.String(), nil
}
