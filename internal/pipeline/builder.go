package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"murmur/internal/aggregate"
	"murmur/internal/batch"
	"murmur/internal/classifier"
	"murmur/internal/config"
	"murmur/internal/enrich"
	"murmur/internal/llm"
	"murmur/internal/observability"
	"murmur/internal/output"
	"murmur/internal/render"
	"murmur/internal/store"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	cfg       *config.Config
	source    CommentSource
	describer VideoDescriber
	completer llm.Completer
	store     *store.Store
	tracker   *observability.PostHogClient
	observer  batch.Observer
	log       *slog.Logger
	progress  io.Writer
}

// NewBuilder creates a builder from the loaded configuration
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg, log: slog.Default()}
}

// WithSource sets the comment source
func (b *Builder) WithSource(source CommentSource) *Builder {
	b.source = source
	if d, ok := source.(VideoDescriber); ok && b.describer == nil {
		b.describer = d
	}
	return b
}

// WithCompleter replaces the configured LLM backend
func (b *Builder) WithCompleter(c llm.Completer) *Builder {
	b.completer = c
	return b
}

// WithStore enables the enrichment cache and run history
func (b *Builder) WithStore(s *store.Store) *Builder {
	b.store = s
	return b
}

// WithTracker enables PostHog analytics
func (b *Builder) WithTracker(t *observability.PostHogClient) *Builder {
	b.tracker = t
	return b
}

// WithObserver sets the batch progress observer
func (b *Builder) WithObserver(o batch.Observer) *Builder {
	b.observer = o
	return b
}

// WithLogger sets the logger passed to every component
func (b *Builder) WithLogger(log *slog.Logger) *Builder {
	if log != nil {
		b.log = log
	}
	return b
}

// WithProgress sets where step progress is printed
func (b *Builder) WithProgress(w io.Writer) *Builder {
	b.progress = w
	return b
}

// Model returns the classifier model the configuration resolves to.
func (b *Builder) Model() string {
	if b.cfg.Classifier.Model != "" {
		return b.cfg.Classifier.Model
	}
	if p, ok := b.cfg.Providers.ProviderFor(b.cfg.Classifier.Provider); ok && p.Model != "" {
		return p.Model
	}
	return llm.DefaultModel(b.cfg.Classifier.Provider)
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build(ctx context.Context) (*Pipeline, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if b.source == nil {
		return nil, fmt.Errorf("comment source is required")
	}

	model := b.Model()
	completer, err := b.buildCompleter(ctx, model)
	if err != nil {
		return nil, err
	}

	gateway := classifier.New(completer, classifier.Options{StrictLabels: b.cfg.Classifier.StrictLabels})

	enrichOpts := enrich.Options{
		Sequential:                b.cfg.Pipeline.Sequential,
		SkipPortugueseTranslation: b.cfg.Pipeline.SkipPTTranslation,
	}
	var enricher enrich.CommentEnricher = enrich.New(gateway, enrichOpts)
	if b.store != nil && b.cfg.Cache.Enabled {
		ttl := config.Duration(b.cfg.Cache.TTL, 0)
		key := enrich.CacheKey(model, b.cfg.Classifier.StrictLabels, enrichOpts)
		enricher = enrich.NewCached(enricher, b.store, key, ttl, b.log)
	}

	observer := b.observer
	if observer == nil {
		observer = batch.LogObserver{Log: b.log}
	}
	processor := batch.New(enricher, batch.Options{Concurrency: b.cfg.Pipeline.Concurrency}, observer)

	p := NewPipeline(
		b.source,
		processor,
		aggregate.New(gateway),
		output.NewWriter(b.cfg.Output.Directory),
		&Config{
			MaxComments:  b.cfg.Pipeline.MaxComments,
			Order:        b.cfg.Pipeline.Order,
			RenderReport: b.cfg.Pipeline.Report,
		},
	).WithLogger(b.log).WithProgress(b.progress)

	p.WithRenderer(render.NewRenderer(render.Options{
		OutputDir:      b.cfg.Output.Directory,
		FetchThumbnail: b.cfg.Pipeline.Thumbnails,
		Logger:         b.log,
	}))
	if b.describer != nil {
		p.WithDescriber(b.describer)
	}
	if b.store != nil {
		p.WithRecorder(b.store)
	}
	if b.tracker.IsEnabled() {
		p.WithTracker(b.tracker)
	}

	return p, nil
}

// buildCompleter stacks rate limiting, retry and tracing over the backend.
func (b *Builder) buildCompleter(ctx context.Context, model string) (llm.Completer, error) {
	base := b.completer
	if base == nil {
		provider := b.cfg.Classifier.Provider
		pc, ok := b.cfg.Providers.ProviderFor(provider)
		if !ok {
			return nil, fmt.Errorf("unknown classifier provider: %s", provider)
		}
		c, err := llm.NewCompleter(ctx, llm.Config{
			Provider:    provider,
			APIKey:      pc.APIKey,
			Model:       model,
			BaseURL:     pc.BaseURL,
			Temperature: b.cfg.Classifier.Temperature,
			MaxTokens:   b.cfg.Classifier.MaxTokens,
			Timeout:     config.Duration(b.cfg.Classifier.Timeout, 60*time.Second),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create classifier backend: %w", err)
		}
		base = c
	}

	completer := llm.NewLimitedRetrying(base, b.cfg.Classifier.RequestsPerSecond, b.cfg.Classifier.Burst,
		llm.WithRetryMaxAttempts(b.cfg.Classifier.MaxRetries))

	var tracker llm.CallTracker
	if b.tracker.IsEnabled() {
		tracker = b.tracker
	}
	return llm.NewTracedCompleter(completer, model, b.log, tracker), nil
}
