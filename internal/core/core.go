package core

import (
	"strings"
	"time"
)

// RawComment represents a top-level comment as returned by the comment source.
type RawComment struct {
	CommentID   string    `json:"comment_id"`   // Platform identifier of the comment
	Author      string    `json:"author"`       // Display name of the author
	Text        string    `json:"text"`         // Original comment text
	PublishedAt time.Time `json:"published_at"` // Publish timestamp
	LikeCount   int64     `json:"like_count"`   // Number of likes at fetch time
	CommentURL  string    `json:"comment_url"`  // Permalink to the comment
	VideoID     string    `json:"video_id"`     // Video the comment belongs to
}

// EnrichedComment is a RawComment plus every label derived for it.
type EnrichedComment struct {
	RawComment
	EmojiExpanded string    `json:"emoji_expanded"` // Text after emoji normalization
	Language      string    `json:"language"`       // ISO-639-1 code, lowercase
	Translated    string    `json:"translated"`     // Text in Portuguese
	Sentiment     Sentiment `json:"sentiment"`      // One of the sentiment domain
	Emotion       Emotion   `json:"emotion"`        // One of the emotion domain
	Keywords      string    `json:"keywords"`       // Comma-joined keyword list
	Context       Context   `json:"context"`        // One of the context domain
}

// KeywordList splits the comma-joined keywords into an ordered slice.
func (e EnrichedComment) KeywordList() []string {
	return SplitKeywords(e.Keywords)
}

// SplitKeywords splits a comma separated keyword string, trimming entries and
// dropping empty ones. Order is preserved.
func SplitKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ItemFailure records a comment dropped from a batch because enrichment failed.
type ItemFailure struct {
	Index     int    `json:"index"`      // 1-based position in the input batch
	CommentID string `json:"comment_id"` // Identifier of the dropped comment
	Err       error  `json:"-"`          // Underlying enrichment error
	Message   string `json:"error"`      // Err rendered as text for persistence
}

// BatchResult is the ordered outcome of processing one comment collection.
type BatchResult struct {
	Enriched []EnrichedComment `json:"enriched"` // Input order, dropped items removed
	Skipped  int               `json:"skipped"`  // Malformed inputs that were skipped
	Failures []ItemFailure     `json:"failures"` // Comments dropped after enrichment failed
}

// LabelDistribution maps a label value to its number of occurrences.
type LabelDistribution map[string]int

// Total returns the sum of all counts.
func (d LabelDistribution) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

// Stats holds the distributions for every label dimension.
type Stats struct {
	SentimentCounts LabelDistribution `json:"sentiment_counts"`
	EmotionCounts   LabelDistribution `json:"emotion_counts"`
	ContextCounts   LabelDistribution `json:"context_counts"`
	LanguageCounts  LabelDistribution `json:"language_counts"`
}

// Payload is the structured output handed to persistence and report rendering.
type Payload struct {
	RawComments      []RawComment      `json:"raw_comments"`
	EnrichedComments []EnrichedComment `json:"enriched_comments"`
	Summary          string            `json:"summary"`
	Stats            Stats             `json:"stats"`
}

// VideoMeta describes the run that produced a payload.
type VideoMeta struct {
	RunID       string        `json:"run_id"`            // Identifier of the analyze run
	VideoID     string        `json:"video_id"`          // Video the comments belong to
	Title       string        `json:"title,omitempty"`   // Video title, when known
	Channel     string        `json:"channel,omitempty"` // Channel name, when known
	OrderUsed   string        `json:"order_used"`        // Ordering used when fetching comments
	GeneratedAt time.Time     `json:"generated_at"`      // When the payload was produced
	Duration    time.Duration `json:"duration"`          // Wall time spent on the video
	Skipped     int           `json:"skipped"`           // Malformed comments skipped
	Failed      int           `json:"failed"`            // Comments dropped after enrichment failed
}
