package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"murmur/internal/batch"
	"murmur/internal/config"
	"murmur/internal/logger"
	"murmur/internal/observability"
	"murmur/internal/pipeline"
	"murmur/internal/store"
	"murmur/internal/youtube"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	maxComments int
	order       string
	concurrency int
	sequential  bool
	provider    string
	model       string
	outputDir   string
	noReport    bool
	noCache     bool
}

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <video-id|url>...",
		Short: "Fetch, label and summarize the comments of one or more videos",
		Long: `Fetch the top-level comments of each video, enrich every comment with
language, Portuguese translation, sentiment, emotion, context and keywords,
then write the JSON artifacts and the report under the output directory.

A video that fails is reported and the run continues with the next one.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAnalyze(ctx, cmd.OutOrStdout(), args, cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.maxComments, "max-comments", "n", 30, "Maximum comments to fetch per video")
	cmd.Flags().StringVar(&opts.order, "order", "", "Comment order: relevance or time")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 0, "Comments enriched in parallel")
	cmd.Flags().BoolVar(&opts.sequential, "sequential", false, "Run the classifier calls of a comment one at a time")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Classifier provider: gemini, openai, groq or anthropic")
	cmd.Flags().StringVar(&opts.model, "model", "", "Classifier model (defaults per provider)")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory")
	cmd.Flags().BoolVar(&opts.noReport, "no-report", false, "Skip the Markdown/HTML report")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Disable the enrichment cache")

	return cmd
}

// applyAnalyzeFlags returns a copy of cfg with the flags that were set applied.
func applyAnalyzeFlags(cfg config.Config, changed func(string) bool, opts analyzeOptions) config.Config {
	if changed("max-comments") {
		cfg.Pipeline.MaxComments = opts.maxComments
	}
	if opts.order != "" {
		cfg.Pipeline.Order = opts.order
	}
	if opts.concurrency > 0 {
		cfg.Pipeline.Concurrency = opts.concurrency
	}
	if opts.sequential {
		cfg.Pipeline.Sequential = true
	}
	if opts.provider != "" {
		cfg.Classifier.Provider = opts.provider
		if opts.model == "" {
			cfg.Classifier.Model = ""
		}
	}
	if opts.model != "" {
		cfg.Classifier.Model = opts.model
	}
	if opts.outputDir != "" {
		cfg.Output.Directory = opts.outputDir
	}
	if opts.noReport {
		cfg.Pipeline.Report = false
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
	return cfg
}

// parseVideoIDs resolves every argument to a video ID, dropping duplicates.
func parseVideoIDs(args []string) ([]string, error) {
	seen := make(map[string]bool, len(args))
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id, err := youtube.ParseVideoID(arg)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func runAnalyze(ctx context.Context, out io.Writer, args []string, cmd *cobra.Command, opts analyzeOptions) error {
	log := logger.Get()

	videoIDs, err := parseVideoIDs(args)
	if err != nil {
		return err
	}

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := applyAnalyzeFlags(*loaded, cmd.Flags().Changed, opts)
	if err := config.Validate(&cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "🎵 Analyzing %d video(s) with %s\n", len(videoIDs), cfg.Classifier.Provider)

	source, err := youtube.NewSource(ctx, cfg.YouTube.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create YouTube client: %w", err)
	}
	source.WithLogger(log).WithTimeout(config.Duration(cfg.YouTube.Timeout, 30*time.Second))

	builder := pipeline.NewBuilder(&cfg).
		WithSource(source).
		WithLogger(log).
		WithProgress(out).
		WithObserver(batch.MultiObserver{
			batch.ConsoleObserver{W: out},
			batch.LogObserver{Log: log},
		})

	if cfg.Cache.Enabled {
		cacheStore, err := store.NewStore(cfg.Cache.Directory)
		if err != nil {
			log.Warn("Cache unavailable, continuing without it", "error", err)
		} else {
			defer func() {
				if err := cacheStore.Close(); err != nil {
					logger.Error("Failed to close cache store", err)
				}
			}()
			builder.WithStore(cacheStore)
		}
	}

	tracker, err := observability.NewPostHogClient(cfg.PostHog)
	if err != nil {
		log.Warn("PostHog disabled", "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracker.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to flush analytics", err)
			}
		}()
		builder.WithTracker(tracker)
	}

	p, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	result, runErr := p.Run(ctx, videoIDs)

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderRunTable(result))
	fmt.Fprintf(out, "✅ %d/%d video(s) completed in %s (run %s)\n",
		result.Succeeded(), len(videoIDs), result.Duration.Round(time.Second), result.RunID)

	if runErr != nil {
		return fmt.Errorf("analysis interrupted: %w", runErr)
	}
	if failed := countFailed(result); failed == len(videoIDs) {
		return fmt.Errorf("all %d video(s) failed", failed)
	}
	return nil
}

func countFailed(result pipeline.RunResult) int {
	n := 0
	for _, v := range result.Videos {
		if v.Status == pipeline.StatusFailed {
			n++
		}
	}
	return n
}

func renderRunTable(result pipeline.RunResult) string {
	headers := []string{"Video", "Status", "Comments", "Enriched", "Skipped", "Failed", "Duration"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}

	rows := make([][]string, 0, len(result.Videos))
	for _, v := range result.Videos {
		rows = append(rows, []string{
			v.VideoID,
			v.Status,
			strconv.Itoa(v.Comments),
			strconv.Itoa(v.Enriched),
			strconv.Itoa(v.Skipped),
			strconv.Itoa(v.Failed),
			v.Duration.Round(time.Millisecond).String(),
		})
	}
	return renderTable(headers, rows, aligns)
}
