package batch

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/lipgloss"

	"murmur/internal/core"
)

// SkippedEvent is emitted for a malformed comment.
type SkippedEvent struct {
	Index     int
	Total     int
	CommentID string
	Err       error
}

// EnrichedEvent is emitted after a comment is enriched.
type EnrichedEvent struct {
	Index   int
	Total   int
	Preview string
	Comment core.EnrichedComment
}

// FailedEvent is emitted when a comment is dropped after enrichment failed.
type FailedEvent struct {
	Index     int
	Total     int
	CommentID string
	Preview   string
	Err       error
}

// DoneEvent is emitted once per batch.
type DoneEvent struct {
	Total    int
	Enriched int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Observer receives progress events. Calls are never concurrent.
type Observer interface {
	OnSkipped(SkippedEvent)
	OnEnriched(EnrichedEvent)
	OnFailed(FailedEvent)
	OnDone(DoneEvent)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnSkipped(SkippedEvent)   {}
func (NopObserver) OnEnriched(EnrichedEvent) {}
func (NopObserver) OnFailed(FailedEvent)     {}
func (NopObserver) OnDone(DoneEvent)         {}

// ObserverFuncs adapts optional callbacks to Observer.
type ObserverFuncs struct {
	SkippedFunc  func(SkippedEvent)
	EnrichedFunc func(EnrichedEvent)
	FailedFunc   func(FailedEvent)
	DoneFunc     func(DoneEvent)
}

func (f ObserverFuncs) OnSkipped(e SkippedEvent) {
	if f.SkippedFunc != nil {
		f.SkippedFunc(e)
	}
}

func (f ObserverFuncs) OnEnriched(e EnrichedEvent) {
	if f.EnrichedFunc != nil {
		f.EnrichedFunc(e)
	}
}

func (f ObserverFuncs) OnFailed(e FailedEvent) {
	if f.FailedFunc != nil {
		f.FailedFunc(e)
	}
}

func (f ObserverFuncs) OnDone(e DoneEvent) {
	if f.DoneFunc != nil {
		f.DoneFunc(e)
	}
}

// MultiObserver fans every event out to each observer in order.
type MultiObserver []Observer

func (m MultiObserver) OnSkipped(e SkippedEvent) {
	for _, o := range m {
		o.OnSkipped(e)
	}
}

func (m MultiObserver) OnEnriched(e EnrichedEvent) {
	for _, o := range m {
		o.OnEnriched(e)
	}
}

func (m MultiObserver) OnFailed(e FailedEvent) {
	for _, o := range m {
		o.OnFailed(e)
	}
}

func (m MultiObserver) OnDone(e DoneEvent) {
	for _, o := range m {
		o.OnDone(e)
	}
}

// LogObserver writes events to a structured logger.
type LogObserver struct {
	Log     *slog.Logger
	VideoID string
}

func (l LogObserver) logger() *slog.Logger {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	if l.VideoID != "" {
		log = log.With("video_id", l.VideoID)
	}
	return log
}

func (l LogObserver) OnSkipped(e SkippedEvent) {
	l.logger().Warn("Comment skipped", "index", e.Index, "total", e.Total, "comment_id", e.CommentID, "error", e.Err)
}

func (l LogObserver) OnEnriched(e EnrichedEvent) {
	l.logger().Debug("Comment enriched",
		"index", e.Index,
		"total", e.Total,
		"sentiment", e.Comment.Sentiment,
		"emotion", e.Comment.Emotion,
		"context", e.Comment.Context)
}

func (l LogObserver) OnFailed(e FailedEvent) {
	l.logger().Warn("Comment dropped", "index", e.Index, "total", e.Total, "comment_id", e.CommentID, "error", e.Err)
}

func (l LogObserver) OnDone(e DoneEvent) {
	l.logger().Info("Batch finished",
		"total", e.Total,
		"enriched", e.Enriched,
		"skipped", e.Skipped,
		"failed", e.Failed,
		"duration", e.Duration.Round(time.Millisecond))
}

var (
	indexStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

// ConsoleObserver prints one styled line per comment.
type ConsoleObserver struct {
	W io.Writer
}

func (c ConsoleObserver) progress(index, total int) string {
	return indexStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
}

func (c ConsoleObserver) OnSkipped(e SkippedEvent) {
	fmt.Fprintf(c.W, "%s %s %v\n", c.progress(e.Index, e.Total), warnStyle.Render("skipped"), e.Err)
}

func (c ConsoleObserver) OnEnriched(e EnrichedEvent) {
	fmt.Fprintf(c.W, "%s %s\n", c.progress(e.Index, e.Total), e.Preview)
	fmt.Fprintf(c.W, "      sentiment: %s | emotion: %s | context: %s\n",
		labelStyle.Render(string(e.Comment.Sentiment)),
		labelStyle.Render(string(e.Comment.Emotion)),
		labelStyle.Render(string(e.Comment.Context)))
}

func (c ConsoleObserver) OnFailed(e FailedEvent) {
	fmt.Fprintf(c.W, "%s %s %s: %v\n", c.progress(e.Index, e.Total), errorStyle.Render("dropped"), e.Preview, e.Err)
}

func (c ConsoleObserver) OnDone(e DoneEvent) {
	fmt.Fprintf(c.W, "%s %d enriched, %d skipped, %d failed in %s\n",
		doneStyle.Render("done"), e.Enriched, e.Skipped, e.Failed, e.Duration.Round(time.Second))
}
