package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"murmur/internal/core"
	"murmur/internal/output"
	"murmur/internal/render"
	"murmur/internal/store"
	"murmur/internal/youtube"
)

// MockCommentSource provides a mock implementation of pipeline.CommentSource and VideoDescriber
type MockCommentSource struct {
	FetchFunc     func(ctx context.Context, videoID string, maxResults int, order string) ([]core.RawComment, string, error)
	VideoInfoFunc func(ctx context.Context, videoID string) (youtube.VideoInfo, error)
}

func (m *MockCommentSource) Fetch(ctx context.Context, videoID string, maxResults int, order string) ([]core.RawComment, string, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, videoID, maxResults, order)
	}
	comments := make([]core.RawComment, 0, 3)
	for i := 1; i <= 3 && i <= maxResults; i++ {
		comments = append(comments, core.RawComment{
			CommentID: fmt.Sprintf("%s-c%d", videoID, i),
			Author:    fmt.Sprintf("@user%d", i),
			Text:      fmt.Sprintf("Mock comment %d", i),
			VideoID:   videoID,
		})
	}
	if order == "" {
		order = youtube.OrderRelevance
	}
	return comments, order, nil
}

func (m *MockCommentSource) VideoInfo(ctx context.Context, videoID string) (youtube.VideoInfo, error) {
	if m.VideoInfoFunc != nil {
		return m.VideoInfoFunc(ctx, videoID)
	}
	return youtube.VideoInfo{VideoID: videoID, Title: "Mock Video", Channel: "Mock Channel"}, nil
}

// MockBatchProcessor provides a mock implementation of pipeline.BatchProcessor
type MockBatchProcessor struct {
	ProcessFunc func(ctx context.Context, raws []core.RawComment) core.BatchResult
}

func (m *MockBatchProcessor) Process(ctx context.Context, raws []core.RawComment) core.BatchResult {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, raws)
	}
	result := core.BatchResult{Failures: []core.ItemFailure{}}
	for _, raw := range raws {
		result.Enriched = append(result.Enriched, core.EnrichedComment{
			RawComment:    raw,
			EmojiExpanded: raw.Text,
			Language:      "pt",
			Translated:    raw.Text,
			Sentiment:     core.SentimentNeutral,
			Emotion:       core.EmotionNeutral,
			Keywords:      "mock",
			Context:       core.ContextAboutSong,
		})
	}
	return result
}

// MockAggregator provides a mock implementation of pipeline.Aggregator
type MockAggregator struct {
	AggregateFunc func(ctx context.Context, batch core.BatchResult) (core.Stats, string, error)
}

func (m *MockAggregator) Aggregate(ctx context.Context, batch core.BatchResult) (core.Stats, string, error) {
	if m.AggregateFunc != nil {
		return m.AggregateFunc(ctx, batch)
	}
	return core.Stats{
		SentimentCounts: core.LabelDistribution{"neutro": len(batch.Enriched)},
		EmotionCounts:   core.LabelDistribution{},
		ContextCounts:   core.LabelDistribution{},
		LanguageCounts:  core.LabelDistribution{},
	}, "Mock summary", nil
}

// MockResultWriter provides a mock implementation of pipeline.ResultWriter
type MockResultWriter struct {
	WriteFunc func(payload core.Payload, meta core.VideoMeta, failures []core.ItemFailure) (output.Paths, error)

	mu      sync.Mutex
	Written []core.Payload
	Metas   []core.VideoMeta
}

func (m *MockResultWriter) Write(payload core.Payload, meta core.VideoMeta, failures []core.ItemFailure) (output.Paths, error) {
	m.mu.Lock()
	m.Written = append(m.Written, payload)
	m.Metas = append(m.Metas, meta)
	m.mu.Unlock()

	if m.WriteFunc != nil {
		return m.WriteFunc(payload, meta, failures)
	}
	return output.PathsFor("mock", meta.VideoID), nil
}

// MockReportRenderer provides a mock implementation of pipeline.ReportRenderer
type MockReportRenderer struct {
	RenderFunc func(ctx context.Context, payload core.Payload, meta core.VideoMeta) (render.Report, error)
	Calls      int
}

func (m *MockReportRenderer) Render(ctx context.Context, payload core.Payload, meta core.VideoMeta) (render.Report, error) {
	m.Calls++
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, payload, meta)
	}
	return render.Report{
		MarkdownPath: fmt.Sprintf("mock/%s/relatorio_%s.md", meta.VideoID, meta.VideoID),
		HTMLPath:     fmt.Sprintf("mock/%s/relatorio_%s.html", meta.VideoID, meta.VideoID),
	}, nil
}

// MockRunRecorder provides a mock implementation of pipeline.RunRecorder
type MockRunRecorder struct {
	RecordRunFunc func(run store.Run) error
	Runs          []store.Run
}

func (m *MockRunRecorder) RecordRun(run store.Run) error {
	m.Runs = append(m.Runs, run)
	if m.RecordRunFunc != nil {
		return m.RecordRunFunc(run)
	}
	return nil
}

// TrackedVideo is one call received by MockVideoTracker
type TrackedVideo struct {
	RunID      string
	VideoID    string
	Enriched   int
	Skipped    int
	Failed     int
	Duration   time.Duration
	Successful bool
}

// TrackedError is one TrackError call received by MockVideoTracker
type TrackedError struct {
	Type      string
	Message   string
	Component string
}

// MockVideoTracker provides a mock implementation of pipeline.VideoTracker
type MockVideoTracker struct {
	Tracked []TrackedVideo
	Errors  []TrackedError
}

func (m *MockVideoTracker) TrackVideoProcessed(ctx context.Context, runID, videoID string, enriched, skipped, failed int, duration time.Duration, successful bool) error {
	m.Tracked = append(m.Tracked, TrackedVideo{runID, videoID, enriched, skipped, failed, duration, successful})
	return nil
}

func (m *MockVideoTracker) TrackError(ctx context.Context, errorType string, errorMessage string, component string) error {
	m.Errors = append(m.Errors, TrackedError{errorType, errorMessage, component})
	return nil
}

// MockCompleter provides a mock llm.Completer that answers by prompt content
type MockCompleter struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	mu    sync.Mutex
	Calls int
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "neutro", nil
}
