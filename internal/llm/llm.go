package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	// ProviderGemini selects Google Gemini through google.golang.org/genai.
	ProviderGemini = "gemini"
	// ProviderOpenAI selects the OpenAI chat completions API.
	ProviderOpenAI = "openai"
	// ProviderGroq selects Groq through its OpenAI-compatible endpoint.
	ProviderGroq = "groq"
	// ProviderAnthropic selects the Anthropic messages API.
	ProviderAnthropic = "anthropic"

	// DefaultGeminiModel is the default Gemini model.
	DefaultGeminiModel = "gemini-flash-lite-latest"
	// DefaultOpenAIModel is the default OpenAI model.
	DefaultOpenAIModel = "gpt-4.1-mini"
	// DefaultGroqModel is the default Groq model.
	DefaultGroqModel = "llama-3.1-8b-instant"
	// DefaultAnthropicModel is the default Anthropic model.
	DefaultAnthropicModel = "claude-haiku-4-5"
	// DefaultGroqBaseURL is Groq's OpenAI-compatible API root.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

	// DefaultTemperature keeps label answers stable across calls.
	DefaultTemperature = float32(0.1)
	// DefaultMaxTokens bounds completions; summaries are the longest answers.
	DefaultMaxTokens = 1024
)

// ErrEmptyCompletion is returned when a backend answers with no text.
var ErrEmptyCompletion = errors.New("empty response from model")

// Completer is a single-shot text completion backend.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Config selects and configures a completion backend.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultModel returns the default model for a provider.
func DefaultModel(provider string) string {
	switch normalizeProvider(provider) {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderGroq:
		return DefaultGroqModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	default:
		return DefaultGeminiModel
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

// NewCompleter builds the backend named by cfg.Provider.
func NewCompleter(ctx context.Context, cfg Config) (Completer, error) {
	provider := normalizeProvider(cfg.Provider)
	if provider == "" {
		provider = ProviderGemini
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s API key is required", provider)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(provider)
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderGroq:
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultGroqBaseURL
		}
		return NewOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider: %s. Supported: gemini, openai, groq, anthropic", cfg.Provider)
	}
}

// GeminiClient completes prompts with Google Gemini.
type GeminiClient struct {
	modelName   string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	gClient     *genai.Client
}

// NewGeminiClient creates a Gemini-backed completer.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens),
		timeout:     cfg.Timeout,
		gClient:     gClient,
	}, nil
}

// Complete sends prompt as a single user turn.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}
	temp := c.temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: c.maxTokens,
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, config)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: ProviderGemini, StatusCode: apiErr.Code, Err: err}
		}
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// StatusError carries the HTTP status reported by a provider SDK.
type StatusError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request: http %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}
