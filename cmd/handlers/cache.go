package handlers

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"murmur/internal/config"
	"murmur/internal/logger"
	"murmur/internal/store"

	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache management command
func NewCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the enrichment cache and run history",
		Long:  `Inspect, clean, and manage the SQLite cache of enriched comments and analyze runs.`,
	}

	cacheCmd.AddCommand(newCacheStatsCmd())
	cacheCmd.AddCommand(newCacheRunsCmd())
	cacheCmd.AddCommand(newCacheCleanupCmd())
	cacheCmd.AddCommand(newCacheClearCmd())

	return cacheCmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics and storage information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(func(s *store.Store) error {
				return runCacheStats(cmd.OutOrStdout(), s)
			})
		},
	}
}

func newCacheRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent analyze runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(func(s *store.Store) error {
				return runCacheRuns(cmd.OutOrStdout(), s, limit)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

func newCacheCleanupCmd() *cobra.Command {
	var maxAge string
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove cached enrichments older than a given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			age, err := time.ParseDuration(maxAge)
			if err != nil {
				return fmt.Errorf("invalid --older-than %q: %w", maxAge, err)
			}
			return withCacheStore(func(s *store.Store) error {
				n, err := s.CleanupOldCache(age)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🧹 Removed %d enrichment(s) older than %s\n", n, age)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&maxAge, "older-than", "720h", "Maximum age of kept enrichments")
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the cache (removes all cached enrichments and runs)",
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if !confirm && !askConfirmation(cmd.InOrStdin(), cmd.OutOrStdout(),
				"⚠️  This will remove all cached enrichments and run history. Continue? [y/N]: ") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache clear cancelled")
				return nil
			}
			return withCacheStore(func(s *store.Store) error {
				if err := s.ClearCache(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✅ Cache cleared successfully")
				return nil
			})
		},
	}

	clearCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")
	return clearCmd
}

func withCacheStore(fn func(*store.Store) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cacheStore, err := store.NewStore(cfg.Cache.Directory)
	if err != nil {
		return fmt.Errorf("failed to initialize cache store: %w", err)
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logger.Error("Failed to close cache store", err)
		}
	}()

	return fn(cacheStore)
}

func askConfirmation(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	response, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func runCacheStats(out io.Writer, s *store.Store) error {
	stats, err := s.GetCacheStats()
	if err != nil {
		return fmt.Errorf("failed to get cache statistics: %w", err)
	}

	lastUpdated := "—"
	if !stats.LastUpdated.IsZero() {
		lastUpdated = stats.LastUpdated.Format("2006-01-02 15:04:05")
	}

	fmt.Fprintln(out, "📊 Cache Statistics")
	fmt.Fprintln(out, renderTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"Enrichments cached", strconv.Itoa(stats.EnrichmentCount)},
			{"Runs recorded", strconv.Itoa(stats.RunCount)},
			{"Cache size", fmt.Sprintf("%.2f MB", float64(stats.CacheSize)/1024/1024)},
			{"Last updated", lastUpdated},
		},
		[]columnAlignment{alignLeft, alignRight},
	))
	return nil
}

func runCacheRuns(out io.Writer, s *store.Store, limit int) error {
	runs, err := s.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.DateGenerated.Local().Format("2006-01-02 15:04"),
			r.VideoID,
			r.Status,
			r.OrderUsed,
			strconv.Itoa(r.CommentCount),
			strconv.Itoa(r.EnrichedCount),
			strconv.Itoa(r.Failed),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Date", "Video", "Status", "Order", "Comments", "Enriched", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	return nil
}
