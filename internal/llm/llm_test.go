package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewCompleter_NoAPIKey(t *testing.T) {
	_, err := NewCompleter(context.Background(), Config{Provider: ProviderOpenAI})
	if err == nil {
		t.Fatal("Expected error when API key is missing")
	}
	if !strings.Contains(err.Error(), "API key is required") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestNewCompleter_UnknownProvider(t *testing.T) {
	_, err := NewCompleter(context.Background(), Config{Provider: "mystery", APIKey: "k"})
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "unknown classifier provider") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestNewCompleter_Providers(t *testing.T) {
	testCases := []struct {
		provider string
		model    string
	}{
		{ProviderOpenAI, DefaultOpenAIModel},
		{ProviderGroq, DefaultGroqModel},
		{ProviderAnthropic, DefaultAnthropicModel},
		{"  OpenAI ", DefaultOpenAIModel},
	}

	for _, tc := range testCases {
		t.Run(tc.provider, func(t *testing.T) {
			c, err := NewCompleter(context.Background(), Config{Provider: tc.provider, APIKey: "test-key"})
			if err != nil {
				t.Fatalf("NewCompleter failed: %v", err)
			}
			var model string
			switch client := c.(type) {
			case *OpenAIClient:
				model = client.modelName
			case *AnthropicClient:
				model = string(client.model)
			default:
				t.Fatalf("Unexpected completer %T", c)
			}
			if model != tc.model {
				t.Errorf("Expected model %s, got %s", tc.model, model)
			}
		})
	}
}

func TestNewCompleter_GroqUsesCompatibleEndpoint(t *testing.T) {
	c, err := NewCompleter(context.Background(), Config{Provider: ProviderGroq, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewCompleter failed: %v", err)
	}
	oc, ok := c.(*OpenAIClient)
	if !ok {
		t.Fatalf("Expected *OpenAIClient, got %T", c)
	}
	if oc.provider != ProviderGroq {
		t.Errorf("Expected provider groq, got %s", oc.provider)
	}
	if oc.temperature != DefaultTemperature {
		t.Errorf("Expected default temperature %v, got %v", DefaultTemperature, oc.temperature)
	}
}

func TestDefaultModel(t *testing.T) {
	if DefaultModel("") != DefaultGeminiModel {
		t.Errorf("Expected gemini default for empty provider")
	}
	if DefaultModel("groq") != DefaultGroqModel {
		t.Errorf("Expected groq default")
	}
}

func TestStatusError(t *testing.T) {
	inner := errors.New("boom")
	err := &StatusError{Provider: "openai", StatusCode: 429, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("StatusError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected status code in message: %s", err.Error())
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryable(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &StatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &StatusError{StatusCode: http.StatusBadGateway}, true},
		{"request timeout", &StatusError{StatusCode: http.StatusRequestTimeout}, true},
		{"bad request", &StatusError{StatusCode: http.StatusBadRequest}, false},
		{"unauthorized", &StatusError{StatusCode: http.StatusUnauthorized}, false},
		{"empty completion", ErrEmptyCompletion, true},
		{"wrapped empty completion", fmt.Errorf("call: %w", ErrEmptyCompletion), true},
		{"network timeout", timeoutErr{}, true},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), false},
		{"plain error", errors.New("nope"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Retryable(tc.err); got != tc.want {
				t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetrying_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	next := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{StatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}
		}
		return "positivo", nil
	})

	var sleeps []time.Duration
	r := NewRetrying(next,
		WithRetryMaxAttempts(3),
		WithRetryBackoff(100*time.Millisecond, time.Second),
		WithSleeper(func(d time.Duration) { sleeps = append(sleeps, d) }))

	out, err := r.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "positivo" {
		t.Errorf("Expected 'positivo', got %q", out)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(sleeps) != len(want) {
		t.Fatalf("Expected %d sleeps, got %v", len(want), sleeps)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("Sleep %d: expected %v, got %v", i, want[i], sleeps[i])
		}
	}
}

func TestRetrying_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := &StatusError{StatusCode: http.StatusUnauthorized, Err: errors.New("bad key")}
	next := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", permanent
	})

	r := NewRetrying(next, WithSleeper(func(time.Duration) {}))
	_, err := r.Complete(context.Background(), "prompt")
	if !errors.Is(err, permanent) {
		t.Errorf("Expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single call, got %d", calls)
	}
}

func TestRetrying_ExhaustsAttempts(t *testing.T) {
	calls := 0
	next := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", ErrEmptyCompletion
	})

	r := NewRetrying(next, WithRetryMaxAttempts(4), WithSleeper(func(time.Duration) {}))
	_, err := r.Complete(context.Background(), "prompt")
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("Expected ErrEmptyCompletion, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed after 4 attempts") {
		t.Errorf("Expected attempt count in message, got %v", err)
	}
	if calls != 4 {
		t.Errorf("Expected 4 calls, got %d", calls)
	}
}

func TestRetrying_StopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	next := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", ErrEmptyCompletion
	})

	r := NewRetrying(next, WithRetryMaxAttempts(5), WithSleeper(func(time.Duration) { cancel() }))
	_, err := r.Complete(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation, got %d", calls)
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	r := NewRetrying(nil, WithRetryBackoff(time.Second, 3*time.Second))
	testCases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second},
		{10, 3 * time.Second},
	}
	for _, tc := range testCases {
		if got := r.backoffDelay(tc.attempt); got != tc.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestRateLimited_Forwards(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	next := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return strings.ToUpper(prompt), nil
	})

	rl := NewRateLimited(next, 0, 0)
	out, err := rl.Complete(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "ABC" {
		t.Errorf("Expected ABC, got %s", out)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestRateLimited_CanceledContext(t *testing.T) {
	next := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		t.Fatal("Wrapped completer should not be called")
		return "", nil
	})
	rl := NewRateLimited(next, 0.001, 1)
	// Consume the single burst token.
	rl.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rl.Complete(ctx, "abc"); err == nil {
		t.Error("Expected error for canceled context")
	}
}

func TestLimitedRetrying_RetriesWaitForTokens(t *testing.T) {
	calls := 0
	next := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", &StatusError{StatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}
	})

	// One token every 1000s: the first attempt uses the burst, the retry
	// cannot get a token before the deadline.
	r := NewLimitedRetrying(next, 0.001, 1, WithRetryMaxAttempts(3), WithSleeper(func(time.Duration) {}))
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := r.Complete(ctx, "prompt")
	if err == nil {
		t.Fatal("Expected the retry to be held back by the limiter")
	}
	if !strings.Contains(err.Error(), "rate limiter") {
		t.Errorf("Expected a limiter error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Retries must not bypass the limiter: expected 1 backend call, got %d", calls)
	}
}

func TestLimitedRetrying_Unlimited(t *testing.T) {
	calls := 0
	next := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "", ErrEmptyCompletion
		}
		return "neutro", nil
	})

	r := NewLimitedRetrying(next, 0, 0, WithRetryMaxAttempts(3), WithSleeper(func(time.Duration) {}))
	out, err := r.Complete(context.Background(), "prompt")
	if err != nil || out != "neutro" {
		t.Fatalf("Expected neutro, got %q (%v)", out, err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

type recordingTracker struct {
	enabled bool
	ops     []string
	tokens  []int
}

func (r *recordingTracker) IsEnabled() bool { return r.enabled }

func (r *recordingTracker) TrackLLMCall(ctx context.Context, model, operation string, tokens int, latencyMs int64, cost float64) error {
	r.ops = append(r.ops, operation)
	r.tokens = append(r.tokens, tokens)
	return nil
}

func TestTracedCompleter(t *testing.T) {
	next := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "neutro", nil
	})
	tracker := &recordingTracker{enabled: true}
	tc := NewTracedCompleter(next, "test-model", nil, tracker)

	ctx := WithOperation(context.Background(), "sentiment")
	out, err := tc.Complete(ctx, "12345678")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "neutro" {
		t.Errorf("Expected neutro, got %s", out)
	}
	if len(tracker.ops) != 1 || tracker.ops[0] != "sentiment" {
		t.Errorf("Expected one sentiment call, got %v", tracker.ops)
	}
	if tracker.tokens[0] != estimateTokens("12345678", "neutro") {
		t.Errorf("Unexpected token estimate %d", tracker.tokens[0])
	}
}

func TestTracedCompleter_DisabledTracker(t *testing.T) {
	wantErr := errors.New("down")
	next := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", wantErr
	})
	tracker := &recordingTracker{enabled: false}
	tc := NewTracedCompleter(next, "m", nil, tracker)

	if _, err := tc.Complete(context.Background(), "p"); !errors.Is(err, wantErr) {
		t.Errorf("Expected wrapped error, got %v", err)
	}
	if len(tracker.ops) != 0 {
		t.Errorf("Disabled tracker should not record, got %v", tracker.ops)
	}
}

func TestOperationFromDefault(t *testing.T) {
	if got := OperationFrom(context.Background()); got != "completion" {
		t.Errorf("Expected default operation 'completion', got %s", got)
	}
}
