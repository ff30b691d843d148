package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"murmur/internal/config"
	"murmur/internal/logger"
	"murmur/internal/output"
	"murmur/internal/server"
	"murmur/internal/store"

	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var (
		port      int
		host      string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Browse generated reports over HTTP",
		Long: `Start a read-only web server over the output directory.

Endpoints:
  GET /health                   Health check
  GET /api/status               Report and cache counts
  GET /api/videos               Analyzed videos
  GET /api/videos/{id}          Saved payload of one video
  GET /api/videos/{id}/stats    Distributions and top keywords
  GET /api/runs                 Run history (requires the cache)
  GET /                         Report index
  GET /videos/{id}              Rendered report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			serverCfg := cfg.Server
			if cmd.Flags().Changed("port") {
				serverCfg.Port = port
			}
			if cmd.Flags().Changed("host") {
				serverCfg.Host = host
			}
			dir := cfg.Output.Directory
			if outputDir != "" {
				dir = outputDir
			}

			return runServe(cmd.Context(), serverCfg, dir, cfg.Cache)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host to bind to")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory to serve")

	return cmd
}

func runServe(ctx context.Context, serverCfg config.Server, dir string, cacheCfg config.Cache) error {
	log := logger.Get()

	var history server.RunHistory
	if cacheCfg.Enabled {
		cacheStore, err := store.NewStore(cacheCfg.Directory)
		if err != nil {
			log.Warn("Run history unavailable", "error", err)
		} else {
			defer cacheStore.Close()
			history = cacheStore
		}
	}

	srv := server.New(output.NewWriter(dir), history, serverCfg)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("Server listening on http://%s", srv.Addr()), "reports", dir)
		log.Info("Press Ctrl+C to stop")
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		log.Info("Server shutdown initiated", "signal", sig.String())

	case <-ctx.Done():
		log.Info("Server shutdown initiated", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped successfully")
	return nil
}
