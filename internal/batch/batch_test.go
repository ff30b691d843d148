package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"murmur/internal/classifier"
	"murmur/internal/core"
	"murmur/internal/enrich"
	"murmur/internal/llm"
)

type enricherFunc func(ctx context.Context, raw core.RawComment) (core.EnrichedComment, error)

func (f enricherFunc) Enrich(ctx context.Context, raw core.RawComment) (core.EnrichedComment, error) {
	return f(ctx, raw)
}

// echoEnricher labels every comment positivo and fails the IDs in fail.
func echoEnricher(fail ...string) enricherFunc {
	return func(ctx context.Context, raw core.RawComment) (core.EnrichedComment, error) {
		for _, id := range fail {
			if raw.CommentID == id {
				return core.EnrichedComment{}, &enrich.Error{CommentID: id, Step: "sentiment", Err: errors.New("rate limited")}
			}
		}
		return core.EnrichedComment{RawComment: raw, Translated: raw.Text, Sentiment: core.SentimentPositive}, nil
	}
}

func comments(texts ...string) []core.RawComment {
	out := make([]core.RawComment, len(texts))
	for i, t := range texts {
		out[i] = core.RawComment{CommentID: fmt.Sprintf("c%d", i+1), Text: t}
	}
	return out
}

func ids(enriched []core.EnrichedComment) []string {
	out := make([]string, len(enriched))
	for i, e := range enriched {
		out[i] = e.CommentID
	}
	return out
}

func TestProcess_SkipsMalformed(t *testing.T) {
	p := New(echoEnricher(), Options{}, nil)
	result := p.Process(context.Background(), comments("first", "", "third"))

	if len(result.Enriched) != 2 {
		t.Fatalf("Expected 2 enriched comments, got %d", len(result.Enriched))
	}
	if result.Skipped != 1 {
		t.Errorf("Expected 1 skipped, got %d", result.Skipped)
	}
	if got := strings.Join(ids(result.Enriched), ","); got != "c1,c3" {
		t.Errorf("Unexpected order %s", got)
	}
	if len(result.Enriched)+result.Skipped != 3 {
		t.Error("Enriched plus skipped must cover the input")
	}
}

func TestProcess_WhitespaceIsMalformed(t *testing.T) {
	p := New(echoEnricher(), Options{}, nil)
	result := p.Process(context.Background(), comments(" \n\t "))
	if result.Skipped != 1 || len(result.Enriched) != 0 {
		t.Errorf("Whitespace-only text should be skipped: %+v", result)
	}
}

func TestProcess_FailureDropsOnlyThatComment(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			p := New(echoEnricher("c2"), Options{Concurrency: concurrency}, nil)
			result := p.Process(context.Background(), comments("a", "b", "c", "d"))

			if got := strings.Join(ids(result.Enriched), ","); got != "c1,c3,c4" {
				t.Errorf("Expected c1,c3,c4, got %s", got)
			}
			if len(result.Failures) != 1 {
				t.Fatalf("Expected 1 failure, got %d", len(result.Failures))
			}
			f := result.Failures[0]
			if f.Index != 2 || f.CommentID != "c2" || !errors.Is(f.Err, enrich.ErrEnrichment) {
				t.Errorf("Unexpected failure record: %+v", f)
			}
			if f.Message == "" {
				t.Error("Failure message should be set")
			}
		})
	}
}

func TestProcess_ConcurrentPreservesOrder(t *testing.T) {
	slow := enricherFunc(func(ctx context.Context, raw core.RawComment) (core.EnrichedComment, error) {
		// Earlier comments finish later.
		var n int
		fmt.Sscanf(raw.CommentID, "c%d", &n)
		time.Sleep(time.Duration(20-n) * time.Millisecond)
		return core.EnrichedComment{RawComment: raw}, nil
	})

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = "t"
	}
	p := New(slow, Options{Concurrency: 6}, nil)
	result := p.Process(context.Background(), comments(texts...))

	if len(result.Enriched) != 12 {
		t.Fatalf("Expected 12 enriched, got %d", len(result.Enriched))
	}
	for i, e := range result.Enriched {
		if e.CommentID != fmt.Sprintf("c%d", i+1) {
			t.Fatalf("Position %d holds %s", i, e.CommentID)
		}
	}
}

func TestProcess_ConcurrencyIsBounded(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	e := enricherFunc(func(ctx context.Context, raw core.RawComment) (core.EnrichedComment, error) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return core.EnrichedComment{RawComment: raw}, nil
	})

	p := New(e, Options{Concurrency: 3}, nil)
	p.Process(context.Background(), comments("a", "b", "c", "d", "e", "f", "g", "h"))
	if peak > 3 {
		t.Errorf("Expected at most 3 concurrent enrichments, saw %d", peak)
	}
}

func TestProcess_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	e := enricherFunc(func(ctx context.Context, raw core.RawComment) (core.EnrichedComment, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return core.EnrichedComment{RawComment: raw}, nil
	})

	p := New(e, Options{}, nil)
	result := p.Process(ctx, comments("a", "b", "c", "", "e"))

	if calls != 2 {
		t.Errorf("No enrichment should start after cancellation, got %d calls", calls)
	}
	if len(result.Enriched) != 2 {
		t.Errorf("Finished results must be kept, got %d", len(result.Enriched))
	}
	if len(result.Enriched)+result.Skipped+len(result.Failures) != 5 {
		t.Errorf("Every input must be accounted for: %+v", result)
	}
	for _, f := range result.Failures {
		if !errors.Is(f.Err, context.Canceled) {
			t.Errorf("Unstarted comment should report cancellation, got %v", f.Err)
		}
	}
}

func TestProcess_EmptyBatch(t *testing.T) {
	p := New(echoEnricher(), Options{}, nil)
	result := p.Process(context.Background(), nil)
	if result.Enriched == nil || len(result.Enriched) != 0 || result.Skipped != 0 {
		t.Errorf("Unexpected result for empty batch: %+v", result)
	}
}

func TestProcess_ObserverEvents(t *testing.T) {
	var enriched, skipped, failed []int
	var done DoneEvent
	obs := ObserverFuncs{
		EnrichedFunc: func(e EnrichedEvent) {
			enriched = append(enriched, e.Index)
			if e.Total != 4 {
				t.Errorf("Expected total 4, got %d", e.Total)
			}
			if e.Comment.Sentiment != core.SentimentPositive {
				t.Errorf("Event should carry labels, got %+v", e.Comment)
			}
		},
		SkippedFunc: func(e SkippedEvent) {
			skipped = append(skipped, e.Index)
			var mErr *MalformedInputError
			if !errors.As(e.Err, &mErr) {
				t.Errorf("Expected MalformedInputError, got %v", e.Err)
			}
		},
		FailedFunc: func(e FailedEvent) { failed = append(failed, e.Index) },
		DoneFunc:   func(e DoneEvent) { done = e },
	}

	p := New(echoEnricher("c4"), Options{}, obs)
	p.Process(context.Background(), comments("a", "", "c", "d"))

	if fmt.Sprint(enriched) != "[1 3]" || fmt.Sprint(skipped) != "[2]" || fmt.Sprint(failed) != "[4]" {
		t.Errorf("Unexpected events: enriched=%v skipped=%v failed=%v", enriched, skipped, failed)
	}
	if done.Total != 4 || done.Enriched != 2 || done.Skipped != 1 || done.Failed != 1 {
		t.Errorf("Unexpected done event: %+v", done)
	}
}

func TestMultiObserverAndConsole(t *testing.T) {
	var buf bytes.Buffer
	count := 0
	obs := MultiObserver{
		ConsoleObserver{W: &buf},
		ObserverFuncs{EnrichedFunc: func(EnrichedEvent) { count++ }},
		LogObserver{VideoID: "v"},
	}

	p := New(echoEnricher(), Options{}, obs)
	p.Process(context.Background(), comments("que saudade dessa música"))

	if count != 1 {
		t.Errorf("Expected fan-out to second observer, got %d", count)
	}
	out := buf.String()
	if !strings.Contains(out, "que saudade dessa música") || !strings.Contains(out, "positivo") {
		t.Errorf("Console output missing comment or label:\n%s", out)
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("á", 120)
	if got := Preview(long); len([]rune(got)) != 90 {
		t.Errorf("Expected 90 runes, got %d", len([]rune(got)))
	}
	if got := Preview("linha um\nlinha   dois"); got != "linha um linha dois" {
		t.Errorf("Unexpected preview %q", got)
	}
}

// conformingCompleter answers each prompt with an in-domain label.
func conformingCompleter() llm.Completer {
	return llm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		switch llm.OperationFrom(ctx) {
		case classifier.OpDetectLanguage:
			if strings.Contains(prompt, "amazing") {
				return "en", nil
			}
			return "pt", nil
		case classifier.OpTranslate:
			return "música incrível", nil
		case classifier.OpSentiment:
			return "Positivo", nil
		case classifier.OpEmotion:
			return "alegria", nil
		case classifier.OpKeywords:
			return "música, incrível", nil
		case classifier.OpContext:
			return "sobre_a_musica", nil
		}
		return "", fmt.Errorf("unexpected operation")
	})
}

func TestProcess_EndToEndLabelsInDomain(t *testing.T) {
	g := classifier.New(conformingCompleter(), classifier.DefaultOptions())
	p := New(enrich.New(g, enrich.DefaultOptions()), Options{Concurrency: 2}, nil)

	result := p.Process(context.Background(), comments("🔥🔥 amazing song", "que música ❤️", "", "demais 👏"))
	if len(result.Enriched)+result.Skipped != 4 {
		t.Fatalf("Enriched plus skipped must cover the input: %+v", result)
	}
	for _, e := range result.Enriched {
		if !e.Sentiment.Valid() || !e.Emotion.Valid() || !e.Context.Valid() {
			t.Errorf("Labels out of domain: %+v", e)
		}
		if e.Language == "pt" && e.Translated != e.EmojiExpanded {
			t.Errorf("pt comment should pass through untranslated: %+v", e)
		}
	}
	if result.Enriched[0].Translated != "música incrível" {
		t.Errorf("Foreign comment should be translated, got %q", result.Enriched[0].Translated)
	}
}
