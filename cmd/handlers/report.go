package handlers

import (
	"context"
	"fmt"
	"io"

	"murmur/internal/config"
	"murmur/internal/logger"
	"murmur/internal/output"
	"murmur/internal/render"
	"murmur/internal/youtube"

	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var (
		outputDir   string
		noThumbnail bool
	)

	cmd := &cobra.Command{
		Use:   "report <video-id|url>",
		Short: "Re-render the report of an analyzed video",
		Long: `Rebuild the Markdown and HTML report from the payload saved by a previous
analyze run. No comments are fetched and no classifier calls are made.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			dir := cfg.Output.Directory
			if outputDir != "" {
				dir = outputDir
			}
			return runReport(cmd.Context(), cmd.OutOrStdout(), args[0], dir, cfg.Pipeline.Thumbnails && !noThumbnail)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory holding the saved payloads")
	cmd.Flags().BoolVar(&noThumbnail, "no-thumbnail", false, "Do not download the video thumbnail")

	return cmd
}

func runReport(ctx context.Context, out io.Writer, arg, dir string, thumbnails bool) error {
	videoID, err := youtube.ParseVideoID(arg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "📂 Loading saved payload for %s\n", videoID)
	record, err := output.NewWriter(dir).Load(videoID)
	if err != nil {
		return fmt.Errorf("no saved analysis for %s in %s: %w", videoID, dir, err)
	}

	renderer := render.NewRenderer(render.Options{
		OutputDir:      dir,
		FetchThumbnail: thumbnails,
		Logger:         logger.Get(),
	})
	report, err := renderer.Render(ctx, record.Payload, record.Meta)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	fmt.Fprintf(out, "✍️  Markdown: %s\n", report.MarkdownPath)
	fmt.Fprintf(out, "🌐 HTML: %s\n", report.HTMLPath)
	return nil
}
