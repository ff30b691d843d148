// Package youtube lists top-level comments of a video through the YouTube Data API.
package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"murmur/internal/core"
)

const (
	// OrderRelevance lists the most relevant comments first.
	OrderRelevance = "relevance"
	// OrderTime lists the newest comments first.
	OrderTime = "time"

	pageSize = 100
)

// Source fetches comments for a video.
type Source struct {
	svc     *yt.Service
	log     *slog.Logger
	timeout time.Duration
}

// VideoInfo holds the video fields shown in reports.
type VideoInfo struct {
	VideoID string
	Title   string
	Channel string
}

// NewSource creates a Source authenticated with apiKey. Extra options are
// appended, which lets tests point the client at a local server.
func NewSource(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Source, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := yt.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	return &Source{svc: svc, log: slog.Default()}, nil
}

// WithLogger sets the logger used for pagination progress.
func (s *Source) WithLogger(log *slog.Logger) *Source {
	if log != nil {
		s.log = log
	}
	return s
}

// WithTimeout bounds every API request. Zero leaves requests bounded only by
// the caller's context.
func (s *Source) WithTimeout(d time.Duration) *Source {
	s.timeout = d
	return s
}

func (s *Source) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// NormalizeOrder maps an ordering hint to a value the API accepts.
func NormalizeOrder(order string) string {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case OrderTime:
		return OrderTime
	default:
		return OrderRelevance
	}
}

// Fetch pages through the comment threads of videoID until maxResults
// comments are collected or no page remains. It returns the comments and the
// ordering actually used.
func (s *Source) Fetch(ctx context.Context, videoID string, maxResults int, order string) ([]core.RawComment, string, error) {
	order = NormalizeOrder(order)
	if maxResults <= 0 {
		return []core.RawComment{}, order, nil
	}

	comments := make([]core.RawComment, 0, maxResults)
	pageToken := ""
	for len(comments) < maxResults {
		resp, err := s.listPage(ctx, videoID, order, pageToken)
		if err != nil {
			return nil, order, fmt.Errorf("failed to list comments for %s: %w", videoID, err)
		}

		for _, item := range resp.Items {
			comment, ok := toRawComment(videoID, item)
			if !ok {
				continue
			}
			comments = append(comments, comment)
			if len(comments) >= maxResults {
				break
			}
		}

		s.log.Debug("Fetched comment page", "video_id", videoID, "items", len(resp.Items), "collected", len(comments))

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return comments, order, nil
}

func (s *Source) listPage(ctx context.Context, videoID, order, pageToken string) (*yt.CommentThreadListResponse, error) {
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	call := s.svc.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		TextFormat("plainText").
		MaxResults(pageSize).
		Order(order).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

func toRawComment(videoID string, item *yt.CommentThread) (core.RawComment, bool) {
	if item == nil || item.Snippet == nil || item.Snippet.TopLevelComment == nil {
		return core.RawComment{}, false
	}
	top := item.Snippet.TopLevelComment
	out := core.RawComment{
		CommentID:  top.Id,
		CommentURL: CommentURL(videoID, top.Id),
		VideoID:    videoID,
	}
	if sn := top.Snippet; sn != nil {
		out.Author = sn.AuthorDisplayName
		out.Text = sn.TextDisplay
		out.LikeCount = sn.LikeCount
		if t, err := time.Parse(time.RFC3339, sn.PublishedAt); err == nil {
			out.PublishedAt = t
		}
	}
	return out, true
}

// VideoInfo returns the title and channel of videoID.
func (s *Source) VideoInfo(ctx context.Context, videoID string) (VideoInfo, error) {
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	resp, err := s.svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("failed to fetch video info for %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return VideoInfo{}, fmt.Errorf("video %s not found", videoID)
	}
	sn := resp.Items[0].Snippet
	return VideoInfo{VideoID: videoID, Title: sn.Title, Channel: sn.ChannelTitle}, nil
}

// CommentURL is the permalink of a comment.
func CommentURL(videoID, commentID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&lc=%s", videoID, commentID)
}

// VideoURL is the watch page of a video.
func VideoURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// ThumbnailURLs lists thumbnail candidates from best to worst quality.
func ThumbnailURLs(videoID string) []string {
	return []string{
		fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID),
		fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", videoID),
	}
}

var (
	bareID    = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	idInPaths = regexp.MustCompile(`^/(?:embed|shorts|live|v)/([a-zA-Z0-9_-]{11})`)
)

// ParseVideoID accepts a bare video ID or a watch, youtu.be, embed, shorts
// or live URL and returns the 11-character video ID.
func ParseVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if bareID.MatchString(input) {
		return input, nil
	}

	raw := input
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("could not extract video ID from %q: %w", input, err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	host = strings.TrimPrefix(host, "music.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "youtube-nocookie.com":
		if u.Path == "/watch" {
			id = u.Query().Get("v")
		} else if m := idInPaths.FindStringSubmatch(u.Path); m != nil {
			id = m[1]
		}
	}

	if !bareID.MatchString(id) {
		return "", fmt.Errorf("could not extract video ID from %q", input)
	}
	return id, nil
}
