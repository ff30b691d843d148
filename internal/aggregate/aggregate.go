// Package aggregate turns an enriched batch into label distributions and a
// narrative summary.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"murmur/internal/core"
)

// ErrAggregation marks a failed narrative summary.
var ErrAggregation = errors.New("aggregation failed")

// Error reports a summary failure. Stats computed before the failure are
// still returned alongside it.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("summarize batch: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAggregation) hold for every *Error.
func (e *Error) Is(target error) bool {
	return target == ErrAggregation
}

// Summarizer produces the narrative summary of a corpus.
type Summarizer interface {
	Summary(ctx context.Context, text string) (string, error)
}

// Aggregator computes corpus-level results for one batch.
type Aggregator struct {
	summarizer Summarizer
}

// New creates an Aggregator.
func New(summarizer Summarizer) *Aggregator {
	return &Aggregator{summarizer: summarizer}
}

// Aggregate computes the distributions and asks for a narrative summary of
// the translated comments joined by line breaks in batch order. An empty
// batch has no summary and makes no classifier call.
func (a *Aggregator) Aggregate(ctx context.Context, batch core.BatchResult) (core.Stats, string, error) {
	stats := Distributions(batch)
	if len(batch.Enriched) == 0 {
		return stats, "", nil
	}

	summary, err := a.summarizer.Summary(ctx, Corpus(batch))
	if err != nil {
		return stats, "", &Error{Err: err}
	}
	return stats, strings.TrimSpace(summary), nil
}

// Corpus joins the translated text of every enriched comment.
func Corpus(batch core.BatchResult) string {
	texts := make([]string, len(batch.Enriched))
	for i, e := range batch.Enriched {
		texts[i] = e.Translated
	}
	return strings.Join(texts, "\n")
}

// Distributions counts each distinct non-empty label per dimension. It
// never fails; an empty batch yields four empty maps.
func Distributions(batch core.BatchResult) core.Stats {
	stats := core.Stats{
		SentimentCounts: core.LabelDistribution{},
		EmotionCounts:   core.LabelDistribution{},
		ContextCounts:   core.LabelDistribution{},
		LanguageCounts:  core.LabelDistribution{},
	}
	count := func(d core.LabelDistribution, v string) {
		if v != "" {
			d[v]++
		}
	}
	for _, e := range batch.Enriched {
		count(stats.SentimentCounts, string(e.Sentiment))
		count(stats.EmotionCounts, string(e.Emotion))
		count(stats.ContextCounts, string(e.Context))
		count(stats.LanguageCounts, e.Language)
	}
	return stats
}

// KeywordCount is the frequency of one keyword across a batch.
type KeywordCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Keywords returns keyword frequencies, most frequent first, ties by term.
func Keywords(batch core.BatchResult) []KeywordCount {
	counts := make(map[string]int)
	for _, e := range batch.Enriched {
		for _, k := range e.KeywordList() {
			counts[strings.ToLower(k)]++
		}
	}

	out := make([]KeywordCount, 0, len(counts))
	for term, n := range counts {
		out = append(out, KeywordCount{Term: term, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// Ranked returns the labels of d sorted by count, highest first, ties by label.
func Ranked(d core.LabelDistribution) []KeywordCount {
	out := make([]KeywordCount, 0, len(d))
	for label, n := range d {
		out = append(out, KeywordCount{Term: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	return out
}
