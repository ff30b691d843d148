// Package enrich derives every label of a single comment.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"murmur/internal/core"
	"murmur/internal/emoji"
)

// ErrEnrichment marks a comment whose enrichment failed.
var ErrEnrichment = errors.New("enrichment failed")

// Error wraps the first classifier failure met while enriching one comment.
type Error struct {
	CommentID string
	Step      string
	Err       error
}

func (e *Error) Error() string {
	if e.CommentID != "" {
		return fmt.Sprintf("enrich comment %s: %s: %v", e.CommentID, e.Step, e.Err)
	}
	return fmt.Sprintf("enrich comment: %s: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrEnrichment) hold for every *Error.
func (e *Error) Is(target error) bool {
	return target == ErrEnrichment
}

// Classifier is the subset of the classifier gateway the enricher needs.
type Classifier interface {
	Language(ctx context.Context, text string) (string, error)
	Translation(ctx context.Context, text, lang string) (string, error)
	Sentiment(ctx context.Context, text string) (core.Sentiment, error)
	Emotion(ctx context.Context, text string) (core.Emotion, error)
	Keywords(ctx context.Context, text string) (string, error)
	Context(ctx context.Context, text string) (core.Context, error)
}

// Options controls call scheduling.
type Options struct {
	// Sequential runs the four label calls one after another.
	Sequential bool
	// SkipPortugueseTranslation returns the expanded text as the translation
	// when the detected language is "pt", without calling the classifier.
	SkipPortugueseTranslation bool
}

// DefaultOptions runs label calls concurrently and skips pt translation.
func DefaultOptions() Options {
	return Options{SkipPortugueseTranslation: true}
}

// CommentEnricher is implemented by Enricher and Cached.
type CommentEnricher interface {
	Enrich(ctx context.Context, raw core.RawComment) (core.EnrichedComment, error)
}

// Enricher runs the per-comment analysis sequence.
type Enricher struct {
	classifier Classifier
	opts       Options
}

// New creates an Enricher.
func New(classifier Classifier, opts Options) *Enricher {
	return &Enricher{classifier: classifier, opts: opts}
}

// Enrich normalizes emoji, detects the language, translates to Portuguese and
// then derives sentiment, emotion, keywords and context from the translation.
func (e *Enricher) Enrich(ctx context.Context, raw core.RawComment) (core.EnrichedComment, error) {
	out := core.EnrichedComment{RawComment: raw}
	fail := func(step string, err error) (core.EnrichedComment, error) {
		return core.EnrichedComment{}, &Error{CommentID: raw.CommentID, Step: step, Err: err}
	}

	out.EmojiExpanded = emoji.Normalize(raw.Text)

	lang, err := e.classifier.Language(ctx, out.EmojiExpanded)
	if err != nil {
		return fail("language", err)
	}
	out.Language = strings.ToLower(strings.TrimSpace(lang))

	if out.Language == "pt" && e.opts.SkipPortugueseTranslation {
		out.Translated = out.EmojiExpanded
	} else {
		translated, err := e.classifier.Translation(ctx, out.EmojiExpanded, out.Language)
		if err != nil {
			return fail("translate", err)
		}
		out.Translated = strings.TrimSpace(translated)
	}

	steps := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{"sentiment", func(ctx context.Context) error {
			v, err := e.classifier.Sentiment(ctx, out.Translated)
			out.Sentiment = v
			return err
		}},
		{"emotion", func(ctx context.Context) error {
			v, err := e.classifier.Emotion(ctx, out.Translated)
			out.Emotion = v
			return err
		}},
		{"keywords", func(ctx context.Context) error {
			v, err := e.classifier.Keywords(ctx, out.Translated)
			out.Keywords = strings.TrimSpace(v)
			return err
		}},
		{"context", func(ctx context.Context) error {
			v, err := e.classifier.Context(ctx, out.Translated)
			out.Context = v
			return err
		}},
	}

	if e.opts.Sequential {
		for _, step := range steps {
			if err := step.run(ctx); err != nil {
				return fail(step.name, err)
			}
		}
		return out, nil
	}

	// Each step writes a distinct field of out, so the goroutines share no state.
	g, gctx := errgroup.WithContext(ctx)
	for _, step := range steps {
		g.Go(func() error {
			if err := step.run(gctx); err != nil {
				return &Error{CommentID: raw.CommentID, Step: step.name, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.EnrichedComment{}, err
	}
	return out, nil
}
