// Package server serves previously generated comment reports over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"murmur/internal/config"
	"murmur/internal/logger"
	"murmur/internal/output"
	"murmur/internal/store"
)

// ReportSource lists and loads persisted video results
type ReportSource interface {
	List() ([]string, error)
	Load(videoID string) (output.Record, error)
}

// RunHistory exposes the run log and cache statistics
type RunHistory interface {
	ListRuns(limit int) ([]store.Run, error)
	GetCacheStats() (*store.CacheStats, error)
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	reports    ReportSource
	runs       RunHistory
	config     config.Server
	log        *slog.Logger
}

// New creates a new HTTP server instance. runs may be nil when the cache is disabled.
func New(reports ReportSource, runs RunHistory, cfg config.Server) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		reports: reports,
		runs:    runs,
		config:  cfg,
		log:     logger.Get(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  config.Duration(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: config.Duration(cfg.WriteTimeout, 15*time.Second),
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(securityHeaders)

	if len(s.config.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300, // Maximum value not ignored by any major browsers
		}))
	}
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/status", s.handleStatus)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/videos", func(r chi.Router) {
			r.Get("/", s.handleListVideos)
			r.Get("/{id}", s.handleGetVideo)
			r.Get("/{id}/stats", s.handleVideoStats)
		})
		r.Get("/runs", s.handleListRuns)
	})

	s.router.Get("/", s.handleIndexPage)
	s.router.With(noCache).Get("/videos/{id}", s.handleReportPage)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.httpServer.ReadTimeout,
		"write_timeout", s.httpServer.WriteTimeout,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
