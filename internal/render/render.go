package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"murmur/internal/aggregate"
	"murmur/internal/core"
	"murmur/internal/youtube"
)

const minThumbnailBytes = 1000

// Options configures a Renderer.
type Options struct {
	OutputDir      string
	FetchThumbnail bool
	HTTPClient     *http.Client
	// ThumbnailURLs lists thumbnail candidates for a video, best first.
	ThumbnailURLs func(videoID string) []string
	Now           func() time.Time
	Logger        *slog.Logger
}

// Renderer writes the Markdown and HTML report of a video.
type Renderer struct {
	opts Options
}

// Report lists the files produced for one video.
type Report struct {
	MarkdownPath  string
	HTMLPath      string
	ThumbnailPath string
}

// NewRenderer creates a Renderer, filling unset options with defaults.
func NewRenderer(opts Options) *Renderer {
	if opts.OutputDir == "" {
		opts.OutputDir = "youtube_comments"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.ThumbnailURLs == nil {
		opts.ThumbnailURLs = youtube.ThumbnailURLs
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Renderer{opts: opts}
}

// Render writes relatorio_<id>.md and relatorio_<id>.html into the video
// folder. A missing thumbnail is logged and never fails the report.
func (r *Renderer) Render(ctx context.Context, payload core.Payload, meta core.VideoMeta) (Report, error) {
	if meta.VideoID == "" {
		return Report{}, fmt.Errorf("video ID is required")
	}
	dir := filepath.Join(r.opts.OutputDir, meta.VideoID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Report{}, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	var report Report
	thumbName := ""
	if r.opts.FetchThumbnail {
		path, err := r.downloadThumbnail(ctx, meta.VideoID, dir)
		if err != nil {
			r.opts.Logger.Warn("Thumbnail not available", "video_id", meta.VideoID, "error", err)
		} else {
			report.ThumbnailPath = path
			thumbName = filepath.Base(path)
		}
	}

	md := Markdown(payload, meta, thumbName, r.opts.Now())
	report.MarkdownPath = filepath.Join(dir, fmt.Sprintf("relatorio_%s.md", meta.VideoID))
	if err := os.WriteFile(report.MarkdownPath, []byte(md), 0644); err != nil {
		return Report{}, fmt.Errorf("failed to write report file %s: %w", report.MarkdownPath, err)
	}

	page, err := HTML(md, Title(meta))
	if err != nil {
		return Report{}, err
	}
	report.HTMLPath = filepath.Join(dir, fmt.Sprintf("relatorio_%s.html", meta.VideoID))
	if err := os.WriteFile(report.HTMLPath, page, 0644); err != nil {
		return Report{}, fmt.Errorf("failed to write report file %s: %w", report.HTMLPath, err)
	}

	return report, nil
}

func (r *Renderer) downloadThumbnail(ctx context.Context, videoID, dir string) (string, error) {
	var lastErr error
	for _, url := range r.opts.ThumbnailURLs(videoID) {
		data, err := r.fetch(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("thumbnail_%s.jpg", videoID))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", fmt.Errorf("failed to write thumbnail: %w", err)
		}
		return path, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no thumbnail candidates")
	}
	return "", lastErr
}

func (r *Renderer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	// YouTube answers missing maxres thumbnails with a tiny placeholder.
	if len(data) <= minThumbnailBytes {
		return nil, fmt.Errorf("%s returned a placeholder image", url)
	}
	return data, nil
}

// Title is the report heading for a video.
func Title(meta core.VideoMeta) string {
	return fmt.Sprintf("Relatório de Análise de Comentários – Vídeo %s", meta.VideoID)
}

// Markdown builds the report document. thumbnail is a file name relative to
// the report, or empty when no thumbnail is available.
func Markdown(payload core.Payload, meta core.VideoMeta, thumbnail string, now time.Time) string {
	var b strings.Builder

	b.WriteString("## Capa do Vídeo\n\n")
	if thumbnail != "" {
		fmt.Fprintf(&b, "![Capa do vídeo %s](%s)\n\n", meta.VideoID, thumbnail)
	} else {
		b.WriteString("*Thumbnail não disponível*\n\n")
	}

	fmt.Fprintf(&b, "# %s\n\n", Title(meta))
	if meta.Title != "" {
		fmt.Fprintf(&b, "**%s**", escape(meta.Title))
		if meta.Channel != "" {
			fmt.Fprintf(&b, " · %s", escape(meta.Channel))
		}
		b.WriteString("\n\n")
	}
	videoURL := youtube.VideoURL(meta.VideoID)
	fmt.Fprintf(&b, "[%s](%s)\n\n", videoURL, videoURL)
	order := meta.OrderUsed
	if order == "" {
		order = youtube.OrderRelevance
	}
	fmt.Fprintf(&b, "*Ordem de coleta dos comentários: **%s***\n\n", order)

	b.WriteString("## Resumo Geral\n\n")
	if payload.Summary != "" {
		b.WriteString(escape(payload.Summary))
	} else {
		b.WriteString("*Resumo não disponível*")
	}
	b.WriteString("\n\n")

	b.WriteString("## Estatísticas de Comentários\n\n")
	b.WriteString("| Métrica | Distribuição |\n")
	b.WriteString("|---|---|\n")
	rows := []struct {
		name string
		dist core.LabelDistribution
	}{
		{"Sentimentos", payload.Stats.SentimentCounts},
		{"Emoções", payload.Stats.EmotionCounts},
		{"Contextos", payload.Stats.ContextCounts},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", row.name, FormatCounts(row.dist))
	}
	fmt.Fprintf(&b, "| Idiomas | %s |\n", FormatLanguages(payload.Stats.LanguageCounts))
	b.WriteString("\n")

	b.WriteString("## Nuvem de Palavras (Keywords)\n\n")
	b.WriteString(WordCloud(aggregate.Keywords(core.BatchResult{Enriched: payload.EnrichedComments})))
	b.WriteString("\n\n")

	b.WriteString("## Distribuição de Contextos\n\n")
	b.WriteString(BarChart(payload.Stats.ContextCounts))
	b.WriteString("\n")

	b.WriteString("## Lista Completa de Comentários\n\n")
	for i, c := range payload.EnrichedComments {
		text := c.Translated
		if text == "" {
			text = c.Text
		}
		fmt.Fprintf(&b, "**%d.** ", i+1)
		if c.Language != "" {
			fmt.Fprintf(&b, "\\[%s\\] ", c.Language)
		}
		b.WriteString(escape(text))
		b.WriteString("  \n")
		fmt.Fprintf(&b, "*Sentimento:* %s | *Emoção:* %s | *Contexto:* %s\n\n",
			orDash(string(c.Sentiment)), orDash(string(c.Emotion)), orDash(string(c.Context)))
	}

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "*Total de comentários analisados: %d*\n\n", len(payload.EnrichedComments))
	fmt.Fprintf(&b, "*Relatório gerado em %s*\n", now.Format("02/01/2006 15:04"))

	return b.String()
}

// FormatCounts renders a distribution as "label: n" pairs, most frequent first.
func FormatCounts(d core.LabelDistribution) string {
	if len(d) == 0 {
		return "—"
	}
	ranked := aggregate.Ranked(d)
	parts := make([]string, len(ranked))
	for i, r := range ranked {
		parts[i] = fmt.Sprintf("%s: %d", r.Term, r.Count)
	}
	return strings.Join(parts, ", ")
}

var languageNamer = display.Tags(language.BrazilianPortuguese)

// FormatLanguages is FormatCounts with ISO codes followed by their
// Portuguese name, e.g. "en (inglês): 2".
func FormatLanguages(d core.LabelDistribution) string {
	if len(d) == 0 {
		return "—"
	}
	ranked := aggregate.Ranked(d)
	parts := make([]string, len(ranked))
	for i, r := range ranked {
		label := r.Term
		if tag, err := language.Parse(r.Term); err == nil {
			if name := languageNamer.Name(tag); name != "" {
				label = fmt.Sprintf("%s (%s)", r.Term, name)
			}
		}
		parts[i] = fmt.Sprintf("%s: %d", label, r.Count)
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"[", "\\[",
	"]", "\\]",
	"#", "\\#",
	"|", "\\|",
	"<", "&lt;",
	">", "&gt;",
	"\r\n", " ",
	"\n", " ",
)

// escape neutralizes Markdown and HTML in user text and keeps it on one line.
func escape(s string) string {
	return markdownEscaper.Replace(strings.TrimSpace(s))
}
