// Package pipeline runs the fetch, enrich, aggregate and persist sequence
// for one or more videos.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"murmur/internal/core"
	"murmur/internal/output"
	"murmur/internal/render"
	"murmur/internal/store"
)

// ErrNoComments is returned for a video that has no comments to analyze.
var ErrNoComments = errors.New("no comments found")

// Stages reported when a video fails.
const (
	ErrorTypeFetch       = "fetch_failed"
	ErrorTypeAggregation = "aggregation_failed"
	ErrorTypeWrite       = "write_failed"
	ErrorTypeRender      = "render_failed"
)

// Video outcomes.
const (
	StatusCompleted  = "completed"
	StatusNoComments = "no_comments"
	StatusFailed     = "failed"
)

// Pipeline orchestrates the per-video workflow
type Pipeline struct {
	source     CommentSource
	describer  VideoDescriber
	processor  BatchProcessor
	aggregator Aggregator
	writer     ResultWriter
	renderer   ReportRenderer
	recorder   RunRecorder
	tracker    VideoTracker

	config *Config
	log    *slog.Logger
	out    io.Writer
}

// Config holds pipeline configuration
type Config struct {
	MaxComments int
	Order       string
	// RenderReport writes the Markdown and HTML report after the JSON artifacts.
	RenderReport bool
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxComments:  30,
		Order:        "relevance",
		RenderReport: true,
	}
}

// NewPipeline creates a pipeline. describer, renderer, recorder and tracker
// are optional and may be nil.
func NewPipeline(
	source CommentSource,
	processor BatchProcessor,
	aggregator Aggregator,
	writer ResultWriter,
	config *Config,
) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pipeline{
		source:     source,
		processor:  processor,
		aggregator: aggregator,
		writer:     writer,
		config:     config,
		log:        slog.Default(),
		out:        io.Discard,
	}
}

// WithDescriber enables title and channel lookup.
func (p *Pipeline) WithDescriber(d VideoDescriber) *Pipeline { p.describer = d; return p }

// WithRenderer enables report rendering.
func (p *Pipeline) WithRenderer(r ReportRenderer) *Pipeline { p.renderer = r; return p }

// WithRecorder records every video in the run history.
func (p *Pipeline) WithRecorder(r RunRecorder) *Pipeline { p.recorder = r; return p }

// WithTracker sends per-video analytics.
func (p *Pipeline) WithTracker(t VideoTracker) *Pipeline { p.tracker = t; return p }

// WithLogger sets the structured logger.
func (p *Pipeline) WithLogger(log *slog.Logger) *Pipeline {
	if log != nil {
		p.log = log
	}
	return p
}

// WithProgress sets where step-by-step progress lines are printed.
func (p *Pipeline) WithProgress(w io.Writer) *Pipeline {
	if w != nil {
		p.out = w
	}
	return p
}

// VideoResult is the outcome of one video
type VideoResult struct {
	RunID    string
	VideoID  string
	Status   string
	Comments int
	Enriched int
	Skipped  int
	Failed   int
	Summary  string
	Stats    core.Stats
	Paths    output.Paths
	Report   render.Report
	Duration time.Duration
	Err      error
}

// RunResult summarizes a multi-video run
type RunResult struct {
	RunID    string
	Videos   []VideoResult
	Duration time.Duration
}

// Succeeded counts the videos that completed.
func (r RunResult) Succeeded() int {
	n := 0
	for _, v := range r.Videos {
		if v.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// Run processes every video in order. A failing video is logged and the
// run continues with the next one. Only cancellation of ctx stops the run
// early, in which case the results so far are returned with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, videoIDs []string) (RunResult, error) {
	start := time.Now()
	result := RunResult{RunID: uuid.NewString()}

	for i, videoID := range videoIDs {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		fmt.Fprintf(p.out, "\n▶ Video %d/%d: %s\n", i+1, len(videoIDs), videoID)
		video := p.ProcessVideo(ctx, result.RunID, videoID)
		result.Videos = append(result.Videos, video)

		switch video.Status {
		case StatusCompleted:
			fmt.Fprintf(p.out, "   ✓ Done in %s\n", video.Duration.Round(time.Millisecond))
		case StatusNoComments:
			fmt.Fprintf(p.out, "   ⏭️  No comments, skipping\n")
		default:
			fmt.Fprintf(p.out, "   ⚠️  %v\n", video.Err)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// ProcessVideo runs the full sequence for one video. Errors are reported in
// the result rather than returned.
func (p *Pipeline) ProcessVideo(ctx context.Context, runID, videoID string) VideoResult {
	start := time.Now()
	log := p.log.With("video_id", videoID, "run_id", runID)
	res := VideoResult{RunID: runID, VideoID: videoID}
	meta := core.VideoMeta{RunID: runID, VideoID: videoID}

	finish := func(status string, err error) VideoResult {
		res.Status = status
		res.Err = err
		res.Duration = time.Since(start)
		p.record(ctx, log, res, meta.OrderUsed)
		return res
	}
	fail := func(errorType string, err error) VideoResult {
		p.trackError(ctx, log, errorType, err)
		return finish(StatusFailed, err)
	}

	if p.describer != nil {
		info, err := p.describer.VideoInfo(ctx, videoID)
		if err != nil {
			log.Warn("Video info unavailable", "error", err)
		} else {
			meta.Title = info.Title
			meta.Channel = info.Channel
		}
	}

	fmt.Fprintf(p.out, "🔍 Fetching up to %d comments...\n", p.config.MaxComments)
	raws, order, err := p.source.Fetch(ctx, videoID, p.config.MaxComments, p.config.Order)
	meta.OrderUsed = order
	if err != nil {
		log.Error("Failed to fetch comments", "error", err)
		return fail(ErrorTypeFetch, err)
	}
	res.Comments = len(raws)
	if len(raws) == 0 {
		log.Warn("Video has no comments")
		return finish(StatusNoComments, fmt.Errorf("%s: %w", videoID, ErrNoComments))
	}
	log.Info("Comments fetched", "count", len(raws), "order", order)

	fmt.Fprintf(p.out, "🧠 Enriching %d comments...\n", len(raws))
	batch := p.processor.Process(ctx, raws)
	res.Enriched = len(batch.Enriched)
	res.Skipped = batch.Skipped
	res.Failed = len(batch.Failures)

	fmt.Fprintf(p.out, "📊 Aggregating...\n")
	stats, summary, aggErr := p.aggregator.Aggregate(ctx, batch)
	if aggErr != nil {
		log.Error("Aggregation failed, saving results without summary", "error", aggErr)
		summary = ""
	}
	res.Stats = stats
	res.Summary = summary

	payload := output.Assemble(raws, batch, summary, stats)
	meta.GeneratedAt = time.Now().UTC()
	meta.Duration = time.Since(start)
	meta.Skipped = res.Skipped
	meta.Failed = res.Failed

	paths, err := p.writer.Write(payload, meta, batch.Failures)
	if err != nil {
		log.Error("Failed to write results", "error", err)
		return fail(ErrorTypeWrite, err)
	}
	res.Paths = paths
	fmt.Fprintf(p.out, "💾 Saved results to %s\n", paths.Dir)

	if aggErr != nil {
		return fail(ErrorTypeAggregation, aggErr)
	}

	if p.config.RenderReport && p.renderer != nil {
		fmt.Fprintf(p.out, "✍️  Rendering report...\n")
		report, err := p.renderer.Render(ctx, payload, meta)
		if err != nil {
			log.Error("Failed to render report", "error", err)
			return fail(ErrorTypeRender, fmt.Errorf("failed to render report: %w", err))
		}
		res.Report = report
		fmt.Fprintf(p.out, "   ✓ Report saved to %s\n", report.HTMLPath)
	}

	return finish(StatusCompleted, nil)
}

func (p *Pipeline) record(ctx context.Context, log *slog.Logger, res VideoResult, order string) {
	if p.recorder != nil {
		run := store.Run{
			RunID:         res.RunID,
			VideoID:       res.VideoID,
			OrderUsed:     order,
			CommentCount:  res.Comments,
			EnrichedCount: res.Enriched,
			Skipped:       res.Skipped,
			Failed:        res.Failed,
			Summary:       res.Summary,
			Status:        res.Status,
			DateGenerated: time.Now().UTC(),
		}
		if err := p.recorder.RecordRun(run); err != nil {
			log.Warn("Failed to record run", "error", err)
		}
	}
	if p.tracker != nil {
		_ = p.tracker.TrackVideoProcessed(ctx, res.RunID, res.VideoID, res.Enriched, res.Skipped, res.Failed,
			res.Duration, res.Status == StatusCompleted)
	}
}

func (p *Pipeline) trackError(ctx context.Context, log *slog.Logger, errorType string, err error) {
	if p.tracker == nil || err == nil {
		return
	}
	if trackErr := p.tracker.TrackError(ctx, errorType, err.Error(), "pipeline"); trackErr != nil {
		log.Warn("Failed to track error", "error", trackErr)
	}
}
