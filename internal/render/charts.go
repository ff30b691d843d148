package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"murmur/internal/aggregate"
	"murmur/internal/core"
)

const (
	maxCloudWords = 60
	barWidth      = 30
)

// WordCloud renders keyword frequencies as inline HTML, font size scaled by count.
func WordCloud(keywords []aggregate.KeywordCount) string {
	if len(keywords) == 0 {
		return `<div class="wordcloud"><span class="empty">vazio</span></div>`
	}
	if len(keywords) > maxCloudWords {
		keywords = keywords[:maxCloudWords]
	}

	maxCount := keywords[0].Count
	var b strings.Builder
	b.WriteString(`<div class="wordcloud">`)
	for i, k := range keywords {
		if i > 0 {
			b.WriteString(" ")
		}
		// 0.9em for singletons up to 2.6em for the most frequent term.
		size := 0.9
		if maxCount > 1 {
			size += 1.7 * float64(k.Count-1) / float64(maxCount-1)
		}
		fmt.Fprintf(&b, `<span style="font-size: %.1fem" title="%d">%s</span>`, size, k.Count, html.EscapeString(k.Term))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// BarChart renders a distribution as a fenced block of horizontal bars.
func BarChart(d core.LabelDistribution) string {
	ranked := aggregate.Ranked(d)
	if len(ranked) == 0 {
		return "*Sem dados*\n"
	}

	labelWidth := 0
	for _, r := range ranked {
		if n := len([]rune(r.Term)); n > labelWidth {
			labelWidth = n
		}
	}
	maxCount := ranked[0].Count

	var b strings.Builder
	b.WriteString("```text\n")
	for _, r := range ranked {
		n := r.Count * barWidth / maxCount
		if n == 0 && r.Count > 0 {
			n = 1
		}
		pad := labelWidth - len([]rune(r.Term))
		fmt.Fprintf(&b, "%s%s %s %d\n", r.Term, strings.Repeat(" ", pad), strings.Repeat("█", n), r.Count)
	}
	b.WriteString("```\n")
	return b.String()
}

// ToHTML converts Markdown to an HTML fragment.
func ToHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	return markdown.ToHTML([]byte(md), p, renderer)
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #1f2937; line-height: 1.5; }
h1 { font-size: 1.6rem; }
table { border-collapse: collapse; width: 100%; }
th { background: #4B5563; color: #fff; text-align: left; }
td { background: #f5f5f5; }
th, td { border: 1px solid #000; padding: 4px 8px; }
img { max-width: 450px; max-height: 250px; }
.wordcloud { line-height: 2.2; padding: 1rem; border: 1px solid #e5e7eb; }
.wordcloud span { margin-right: .4rem; color: #374151; }
pre { background: #f9fafb; padding: .75rem; overflow-x: auto; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML wraps the rendered Markdown in a standalone page.
func HTML(md, title string) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(ToHTML(md)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report page: %w", err)
	}
	return buf.Bytes(), nil
}
