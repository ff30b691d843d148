package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient completes prompts with the OpenAI chat completions API. Groq is
// served by the same client pointed at its compatible base URL.
type OpenAIClient struct {
	client      *openai.Client
	provider    string
	modelName   string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewOpenAIClient creates an OpenAI-compatible completer.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	provider := ProviderOpenAI
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		if strings.Contains(cfg.BaseURL, "groq.com") {
			provider = ProviderGroq
		}
	}
	// Retries are handled by the Retrying wrapper.
	opts = append(opts, option.WithMaxRetries(0))

	client := openai.NewClient(opts...)
	return &OpenAIClient{
		client:      &client,
		provider:    provider,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
}

// Complete sends prompt as a single user message.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(float64(c.temperature)),
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: c.provider, StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", fmt.Errorf("%s API error: %w", c.provider, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
