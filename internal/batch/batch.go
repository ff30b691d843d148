// Package batch enriches a collection of comments, isolating per-comment failures.
package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"murmur/internal/core"
	"murmur/internal/enrich"
)

const previewRunes = 90

// MalformedInputError reports a batch item that is not a usable comment.
type MalformedInputError struct {
	Index     int
	CommentID string
	Reason    string
}

func (e *MalformedInputError) Error() string {
	if e.CommentID != "" {
		return fmt.Sprintf("comment %d (%s) skipped: %s", e.Index, e.CommentID, e.Reason)
	}
	return fmt.Sprintf("comment %d skipped: %s", e.Index, e.Reason)
}

// Validate checks that raw can be enriched. index is 1-based.
func Validate(index int, raw core.RawComment) error {
	if strings.TrimSpace(raw.Text) == "" {
		return &MalformedInputError{Index: index, CommentID: raw.CommentID, Reason: "missing text"}
	}
	return nil
}

// Options controls scheduling.
type Options struct {
	// Concurrency is the number of comments enriched at once. Values below 1 mean 1.
	Concurrency int
}

// Processor enriches batches of comments.
type Processor struct {
	enricher enrich.CommentEnricher
	opts     Options
	observer Observer
	mu       sync.Mutex
}

// New creates a Processor. observer may be nil.
func New(enricher enrich.CommentEnricher, opts Options, observer Observer) *Processor {
	if observer == nil {
		observer = NopObserver{}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Processor{enricher: enricher, opts: opts, observer: observer}
}

type slot struct {
	enriched *core.EnrichedComment
	skipped  bool
	failure  *core.ItemFailure
}

// Process enriches every valid comment of raws. Malformed comments are
// skipped and comments whose enrichment fails are dropped; neither stops the
// batch. Enriched comments keep their input order. When ctx is canceled no
// new comment is started and the unstarted ones are reported as failures.
func (p *Processor) Process(ctx context.Context, raws []core.RawComment) core.BatchResult {
	start := time.Now()
	total := len(raws)
	slots := make([]slot, total)

	if p.opts.Concurrency == 1 {
		for i := range raws {
			p.processOne(ctx, i, total, raws[i], &slots[i])
		}
	} else {
		g := new(errgroup.Group)
		g.SetLimit(p.opts.Concurrency)
		for i := range raws {
			if ctx.Err() != nil {
				p.processOne(ctx, i, total, raws[i], &slots[i])
				continue
			}
			g.Go(func() error {
				p.processOne(ctx, i, total, raws[i], &slots[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	result := core.BatchResult{
		Enriched: make([]core.EnrichedComment, 0, total),
		Failures: []core.ItemFailure{},
	}
	for _, s := range slots {
		switch {
		case s.enriched != nil:
			result.Enriched = append(result.Enriched, *s.enriched)
		case s.skipped:
			result.Skipped++
		case s.failure != nil:
			result.Failures = append(result.Failures, *s.failure)
		}
	}

	p.emit(func(o Observer) {
		o.OnDone(DoneEvent{
			Total:    total,
			Enriched: len(result.Enriched),
			Skipped:  result.Skipped,
			Failed:   len(result.Failures),
			Duration: time.Since(start),
		})
	})
	return result
}

func (p *Processor) processOne(ctx context.Context, i, total int, raw core.RawComment, s *slot) {
	index := i + 1

	if err := Validate(index, raw); err != nil {
		s.skipped = true
		p.emit(func(o Observer) {
			o.OnSkipped(SkippedEvent{Index: index, Total: total, CommentID: raw.CommentID, Err: err})
		})
		return
	}

	var (
		enriched core.EnrichedComment
		err      error
	)
	if err = ctx.Err(); err == nil {
		enriched, err = p.enricher.Enrich(ctx, raw)
	}
	if err != nil {
		s.failure = &core.ItemFailure{Index: index, CommentID: raw.CommentID, Err: err, Message: err.Error()}
		p.emit(func(o Observer) {
			o.OnFailed(FailedEvent{Index: index, Total: total, CommentID: raw.CommentID, Preview: Preview(raw.Text), Err: err})
		})
		return
	}

	s.enriched = &enriched
	p.emit(func(o Observer) {
		o.OnEnriched(EnrichedEvent{Index: index, Total: total, Preview: Preview(raw.Text), Comment: enriched})
	})
}

// emit serializes observer calls across workers.
func (p *Processor) emit(fn func(Observer)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.observer)
}

// Preview returns the first characters of text on a single line.
func Preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes])
}
