package server

import (
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"murmur/internal/render"
	"murmur/internal/youtube"
)

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "—"
		}
		return t.Local().Format("02/01/2006 15:04")
	},
}).Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Relatórios de Comentários</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; color: #1f2937; }
table { border-collapse: collapse; width: 100%; }
th { background: #4B5563; color: #fff; text-align: left; }
th, td { border: 1px solid #d1d5db; padding: 6px 8px; vertical-align: top; }
.summary { color: #4b5563; font-size: .9rem; }
</style>
</head>
<body>
<h1>Relatórios de Comentários</h1>
{{if .}}
<table>
<tr><th>Vídeo</th><th>Gerado em</th><th>Comentários</th><th>Resumo</th></tr>
{{range .}}
<tr>
<td><a href="/videos/{{.VideoID}}">{{if .Title}}{{.Title}}{{else}}{{.VideoID}}{{end}}</a>{{if .Channel}}<br><small>{{.Channel}}</small>{{end}}</td>
<td>{{date .GeneratedAt}}</td>
<td>{{.Enriched}}/{{.Comments}}</td>
<td class="summary">{{.Summary}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>Nenhum relatório encontrado. Execute <code>murmur analyze &lt;video&gt;</code> primeiro.</p>
{{end}}
</body>
</html>
`))

// handleIndexPage lists every stored report
func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	videos, err := s.listVideos()
	if err != nil {
		s.log.Error("Failed to list reports", "error", err)
		http.Error(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, videos); err != nil {
		s.log.Error("Failed to render index page", "error", err)
	}
}

// handleReportPage renders the report of one video from its stored payload
func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validVideoID.MatchString(id) {
		http.Error(w, "Invalid video ID", http.StatusBadRequest)
		return
	}
	rec, err := s.reports.Load(id)
	if err != nil {
		s.log.Warn("Report not available", "video_id", id, "error", err)
		http.NotFound(w, r)
		return
	}

	generated := rec.Meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	thumbs := youtube.ThumbnailURLs(id)
	md := render.Markdown(rec.Payload, rec.Meta, thumbs[len(thumbs)-1], generated.Local())

	page, err := render.HTML(md, render.Title(rec.Meta))
	if err != nil {
		s.log.Error("Failed to render report page", "video_id", id, "error", err)
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
