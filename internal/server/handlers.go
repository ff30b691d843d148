package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"murmur/internal/aggregate"
	"murmur/internal/core"
	"murmur/internal/output"
)

// HealthResponse is returned by /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// StatusResponse is returned by /api/status
type StatusResponse struct {
	Uptime string       `json:"uptime"`
	Videos int          `json:"videos"`
	Cache  *CacheStatus `json:"cache,omitempty"`
}

// CacheStatus summarizes the enrichment cache
type CacheStatus struct {
	Enrichments int       `json:"enrichments"`
	Runs        int       `json:"runs"`
	SizeBytes   int64     `json:"size_bytes"`
	LastUpdated time.Time `json:"last_updated"`
}

// VideoSummary is one entry of the video list
type VideoSummary struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title,omitempty"`
	Channel     string    `json:"channel,omitempty"`
	OrderUsed   string    `json:"order_used"`
	GeneratedAt time.Time `json:"generated_at"`
	Comments    int       `json:"comments"`
	Enriched    int       `json:"enriched"`
	Failed      int       `json:"failed"`
	Summary     string    `json:"summary"`
}

// VideoStatsResponse is returned by /api/videos/{id}/stats
type VideoStatsResponse struct {
	VideoID  string                   `json:"video_id"`
	Stats    core.Stats               `json:"stats"`
	Keywords []aggregate.KeywordCount `json:"keywords"`
}

var serverStartTime = time.Now()

var validVideoID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// handleHealth handles the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"reports": "ok"}
	if _, err := s.reports.List(); err != nil {
		checks["reports"] = "error"
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Checks: checks})
		return
	}
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
}

// handleStatus handles the /api/status endpoint
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ids, err := s.reports.List()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list reports", err)
		return
	}

	resp := StatusResponse{
		Uptime: time.Since(serverStartTime).Round(time.Second).String(),
		Videos: len(ids),
	}
	if s.runs != nil {
		if stats, err := s.runs.GetCacheStats(); err != nil {
			s.log.Warn("Failed to read cache stats", "error", err)
		} else {
			resp.Cache = &CacheStatus{
				Enrichments: stats.EnrichmentCount,
				Runs:        stats.RunCount,
				SizeBytes:   stats.CacheSize,
				LastUpdated: stats.LastUpdated,
			}
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleListVideos handles GET /api/videos
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.listVideos()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list reports", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":  videos,
		"count": len(videos),
	})
}

// handleGetVideo handles GET /api/videos/{id}
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.loadRecord(w, id)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

// handleVideoStats handles GET /api/videos/{id}/stats
func (s *Server) handleVideoStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.loadRecord(w, id)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, VideoStatsResponse{
		VideoID:  id,
		Stats:    rec.Stats,
		Keywords: aggregate.Keywords(core.BatchResult{Enriched: rec.EnrichedComments}),
	})
}

// handleListRuns handles GET /api/runs?limit=N
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.respondError(w, http.StatusNotFound, "run history is disabled", nil)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list runs", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":  runs,
		"count": len(runs),
	})
}

func (s *Server) listVideos() ([]VideoSummary, error) {
	ids, err := s.reports.List()
	if err != nil {
		return nil, err
	}
	videos := make([]VideoSummary, 0, len(ids))
	for _, id := range ids {
		rec, err := s.reports.Load(id)
		if err != nil {
			s.log.Warn("Skipping unreadable report", "video_id", id, "error", err)
			continue
		}
		videos = append(videos, VideoSummary{
			VideoID:     id,
			Title:       rec.Meta.Title,
			Channel:     rec.Meta.Channel,
			OrderUsed:   rec.Meta.OrderUsed,
			GeneratedAt: rec.Meta.GeneratedAt,
			Comments:    len(rec.RawComments),
			Enriched:    len(rec.EnrichedComments),
			Failed:      len(rec.Failures),
			Summary:     excerpt(rec.Summary, 200),
		})
	}
	return videos, nil
}

// loadRecord writes the error response itself and reports whether rec is usable.
func (s *Server) loadRecord(w http.ResponseWriter, id string) (rec output.Record, ok bool) {
	if !validVideoID.MatchString(id) {
		s.respondError(w, http.StatusBadRequest, "invalid video ID", nil)
		return rec, false
	}
	r, err := s.reports.Load(id)
	if errors.Is(err, os.ErrNotExist) {
		s.respondError(w, http.StatusNotFound, "report not found", nil)
		return rec, false
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to load report", err)
		return rec, false
	}
	return r, true
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError writes a JSON error body and logs server-side failures
func (s *Server) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		s.log.Error(message, "error", err, "status", status)
	}
	s.respondJSON(w, status, map[string]string{"error": message})
}
