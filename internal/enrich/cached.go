package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/core"
)

// Cache persists enrichments between runs.
type Cache interface {
	GetCachedEnrichment(commentID, text, modelUsed string, maxAge time.Duration) (*core.EnrichedComment, error)
	CacheEnrichment(comment core.EnrichedComment, modelUsed string) error
}

// Cached serves enrichments from a Cache and falls back to the wrapped
// enricher on a miss. Cache failures are logged and never fail a comment.
type Cached struct {
	next   CommentEnricher
	cache  Cache
	model  string
	maxAge time.Duration
	log    *slog.Logger
}

// CacheKey names the settings that shape an enrichment: the model, whether
// labels were checked against their domain and whether pt text skipped
// translation. Entries stored under a different key are not reused.
func CacheKey(model string, strictLabels bool, opts Options) string {
	return fmt.Sprintf("%s;strict=%t;pt_passthrough=%t", model, strictLabels, opts.SkipPortugueseTranslation)
}

// NewCached wraps next. Entries are keyed by comment ID, text and model, where
// model is usually built with CacheKey.
func NewCached(next CommentEnricher, cache Cache, model string, maxAge time.Duration, log *slog.Logger) *Cached {
	if log == nil {
		log = slog.Default()
	}
	return &Cached{next: next, cache: cache, model: model, maxAge: maxAge, log: log}
}

// Enrich returns the cached enrichment when the comment text is unchanged.
func (c *Cached) Enrich(ctx context.Context, raw core.RawComment) (core.EnrichedComment, error) {
	if raw.CommentID != "" {
		cached, err := c.cache.GetCachedEnrichment(raw.CommentID, raw.Text, c.model, c.maxAge)
		if err != nil {
			c.log.Warn("Enrichment cache lookup failed", "comment_id", raw.CommentID, "error", err)
		} else if cached != nil {
			// Fetch-time fields such as likes change between runs.
			cached.RawComment = raw
			return *cached, nil
		}
	}

	enriched, err := c.next.Enrich(ctx, raw)
	if err != nil {
		return enriched, err
	}

	if raw.CommentID != "" {
		if err := c.cache.CacheEnrichment(enriched, c.model); err != nil {
			c.log.Warn("Failed to cache enrichment", "comment_id", raw.CommentID, "error", err)
		}
	}
	return enriched, nil
}
