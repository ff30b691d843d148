package pipeline

import (
	"context"
	"time"

	"murmur/internal/core"
	"murmur/internal/output"
	"murmur/internal/render"
	"murmur/internal/store"
	"murmur/internal/youtube"
)

// CommentSource lists the top-level comments of a video
type CommentSource interface {
	// Fetch returns up to maxResults comments and the ordering actually used
	Fetch(ctx context.Context, videoID string, maxResults int, order string) ([]core.RawComment, string, error)
}

// VideoDescriber looks up display metadata for a video
type VideoDescriber interface {
	VideoInfo(ctx context.Context, videoID string) (youtube.VideoInfo, error)
}

// BatchProcessor enriches a comment collection, isolating per-comment failures
type BatchProcessor interface {
	Process(ctx context.Context, raws []core.RawComment) core.BatchResult
}

// Aggregator derives label distributions and the narrative summary
type Aggregator interface {
	// Aggregate returns the stats even when summarization fails
	Aggregate(ctx context.Context, batch core.BatchResult) (core.Stats, string, error)
}

// ResultWriter persists the JSON artifacts of a video
type ResultWriter interface {
	Write(payload core.Payload, meta core.VideoMeta, failures []core.ItemFailure) (output.Paths, error)
}

// ReportRenderer produces the human-readable report of a video
type ReportRenderer interface {
	Render(ctx context.Context, payload core.Payload, meta core.VideoMeta) (render.Report, error)
}

// RunRecorder keeps the run history
type RunRecorder interface {
	RecordRun(run store.Run) error
}

// VideoTracker receives analytics about processed videos
type VideoTracker interface {
	TrackVideoProcessed(ctx context.Context, runID, videoID string, enriched, skipped, failed int, duration time.Duration, successful bool) error
	TrackError(ctx context.Context, errorType string, errorMessage string, component string) error
}
