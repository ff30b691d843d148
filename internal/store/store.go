package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"murmur/internal/core"
)

// Store represents the SQLite-based enrichment cache and run history
type Store struct {
	db   *sql.DB
	path string
}

// Run is one analyzed video as recorded in the run history.
type Run struct {
	RunID         string
	VideoID       string
	OrderUsed     string
	CommentCount  int
	EnrichedCount int
	Skipped       int
	Failed        int
	Summary       string
	Status        string
	DateGenerated time.Time
}

// NewStore creates a new store instance with SQLite database
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "murmur.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; batch workers share the handle.
	db.SetMaxOpenConns(1)

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	enrichmentsTable := `
	CREATE TABLE IF NOT EXISTS enrichments (
		comment_id TEXT NOT NULL,
		model_used TEXT NOT NULL,
		video_id TEXT,
		text_hash TEXT NOT NULL,
		payload TEXT NOT NULL,
		date_enriched DATETIME,
		PRIMARY KEY (comment_id, model_used)
	);`

	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		order_used TEXT,
		comment_count INTEGER,
		enriched_count INTEGER,
		skipped INTEGER,
		failed INTEGER,
		summary TEXT,
		status TEXT,
		date_generated DATETIME,
		PRIMARY KEY (run_id, video_id)
	);`

	tables := []string{enrichmentsTable, runsTable}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CacheEnrichment stores an enriched comment keyed by comment ID and model
func (s *Store) CacheEnrichment(comment core.EnrichedComment, modelUsed string) error {
	if comment.CommentID == "" {
		return fmt.Errorf("comment ID is required for caching")
	}
	payload, err := json.Marshal(comment)
	if err != nil {
		return fmt.Errorf("failed to encode enrichment: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO enrichments
	(comment_id, model_used, video_id, text_hash, payload, date_enriched)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query,
		comment.CommentID,
		modelUsed,
		comment.VideoID,
		ContentHash(comment.Text),
		string(payload),
		time.Now().UTC(),
	)
	return err
}

// GetCachedEnrichment returns the cached enrichment for a comment whose text
// still hashes to the stored value. A miss returns nil without error.
func (s *Store) GetCachedEnrichment(commentID, text, modelUsed string, maxAge time.Duration) (*core.EnrichedComment, error) {
	query := `
	SELECT payload FROM enrichments
	WHERE comment_id = ? AND model_used = ? AND text_hash = ? AND date_enriched > ?`

	cutoff := time.Now().UTC().Add(-maxAge)
	if maxAge <= 0 {
		cutoff = time.Time{}
	}

	var payload string
	err := s.db.QueryRow(query, commentID, modelUsed, ContentHash(text), cutoff).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query enrichment: %w", err)
	}

	var comment core.EnrichedComment
	if err := json.Unmarshal([]byte(payload), &comment); err != nil {
		return nil, fmt.Errorf("failed to decode cached enrichment: %w", err)
	}
	return &comment, nil
}

// RecordRun stores the outcome of analyzing one video
func (s *Store) RecordRun(run Run) error {
	if run.DateGenerated.IsZero() {
		run.DateGenerated = time.Now().UTC()
	}

	query := `
	INSERT OR REPLACE INTO runs
	(run_id, video_id, order_used, comment_count, enriched_count, skipped, failed, summary, status, date_generated)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		run.RunID,
		run.VideoID,
		run.OrderUsed,
		run.CommentCount,
		run.EnrichedCount,
		run.Skipped,
		run.Failed,
		run.Summary,
		run.Status,
		run.DateGenerated,
	)
	return err
}

// ListRuns returns the most recent runs first
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT run_id, video_id, order_used, comment_count, enriched_count, skipped, failed, summary, status, date_generated
	FROM runs
	ORDER BY date_generated DESC
	LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.VideoID, &r.OrderUsed, &r.CommentCount, &r.EnrichedCount,
			&r.Skipped, &r.Failed, &r.Summary, &r.Status, &r.DateGenerated); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CacheStats represents cache statistics
type CacheStats struct {
	EnrichmentCount int
	RunCount        int
	CacheSize       int64
	LastUpdated     time.Time
}

// GetCacheStats returns statistics about the cache
func (s *Store) GetCacheStats() (*CacheStats, error) {
	stats := &CacheStats{}

	queries := map[string]*int{
		"SELECT COUNT(*) FROM enrichments": &stats.EnrichmentCount,
		"SELECT COUNT(*) FROM runs":        &stats.RunCount,
	}

	for query, target := range queries {
		err := s.db.QueryRow(query).Scan(target)
		if err != nil {
			return nil, fmt.Errorf("failed to get count: %w", err)
		}
	}

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats.CacheSize = fileInfo.Size()
		stats.LastUpdated = fileInfo.ModTime()
	}

	return stats, nil
}

// ClearCache removes all cached data
func (s *Store) ClearCache() error {
	tables := []string{"enrichments", "runs"}

	for _, table := range tables {
		_, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			return fmt.Errorf("failed to clear %s table: %w", table, err)
		}
	}

	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	return nil
}

// CleanupOldCache removes enrichments older than maxAge
func (s *Store) CleanupOldCache(maxAge time.Duration) (int64, error) {
	res, err := s.db.Exec("DELETE FROM enrichments WHERE date_enriched < ?", time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to clean old enrichments: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ContentHash returns the SHA-256 of content, hex encoded.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
