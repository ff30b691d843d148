package handlers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"murmur/internal/config"
	"murmur/internal/core"
	"murmur/internal/output"
	"murmur/internal/pipeline"
	"murmur/internal/store"
)

func TestParseVideoIDs(t *testing.T) {
	ids, err := parseVideoIDs([]string{
		"dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/8xg3vE8Ie_E",
	})
	if err != nil {
		t.Fatalf("parseVideoIDs failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "dQw4w9WgXcQ" || ids[1] != "8xg3vE8Ie_E" {
		t.Errorf("Unexpected IDs %v", ids)
	}

	if _, err := parseVideoIDs([]string{"not a video"}); err == nil {
		t.Error("Expected error for an invalid argument")
	}
}

func TestApplyAnalyzeFlags(t *testing.T) {
	base := config.Config{
		Classifier: config.Classifier{Provider: "gemini", Model: "gemini-2.5-flash"},
		Pipeline:   config.Pipeline{MaxComments: 30, Order: "relevance", Concurrency: 4, Report: true},
		Output:     config.Output{Directory: "youtube_comments"},
		Cache:      config.Cache{Enabled: true},
	}

	testCases := []struct {
		name    string
		changed []string
		opts    analyzeOptions
		check   func(t *testing.T, cfg config.Config)
	}{
		{
			name: "no flags keeps the configuration",
			opts: analyzeOptions{maxComments: 30},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.Pipeline.MaxComments != 30 || cfg.Classifier.Model != "gemini-2.5-flash" || !cfg.Cache.Enabled {
					t.Errorf("Unexpected config %+v", cfg)
				}
			},
		},
		{
			name:    "max comments zero when set explicitly",
			changed: []string{"max-comments"},
			opts:    analyzeOptions{maxComments: 0},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.Pipeline.MaxComments != 0 {
					t.Errorf("Expected 0 max comments, got %d", cfg.Pipeline.MaxComments)
				}
			},
		},
		{
			name: "provider switch clears the configured model",
			opts: analyzeOptions{provider: "openai"},
			check: func(t *testing.T, cfg config.Config) {
				if cfg.Classifier.Provider != "openai" || cfg.Classifier.Model != "" {
					t.Errorf("Unexpected classifier %+v", cfg.Classifier)
				}
			},
		},
		{
			name: "toggles",
			opts: analyzeOptions{order: "time", concurrency: 8, outputDir: "out", noReport: true, noCache: true, sequential: true},
			check: func(t *testing.T, cfg config.Config) {
				p := cfg.Pipeline
				if p.Order != "time" || p.Concurrency != 8 || p.Report || !p.Sequential {
					t.Errorf("Unexpected pipeline %+v", p)
				}
				if cfg.Output.Directory != "out" || cfg.Cache.Enabled {
					t.Errorf("Unexpected output/cache %+v %+v", cfg.Output, cfg.Cache)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			changed := func(name string) bool {
				for _, c := range tc.changed {
					if c == name {
						return true
					}
				}
				return false
			}
			tc.check(t, applyAnalyzeFlags(base, changed, tc.opts))
		})
	}

	if base.Pipeline.Order != "relevance" {
		t.Error("applyAnalyzeFlags should not modify its input")
	}
}

func TestRenderRunTable(t *testing.T) {
	out := renderRunTable(pipeline.RunResult{Videos: []pipeline.VideoResult{
		{VideoID: "dQw4w9WgXcQ", Status: pipeline.StatusCompleted, Comments: 30, Enriched: 28, Failed: 2, Duration: 1500 * time.Millisecond},
		{VideoID: "8xg3vE8Ie_E", Status: pipeline.StatusNoComments},
	}})

	for _, want := range []string{"Video", "dQw4w9WgXcQ", "completed", "no_comments", "28", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in table:\n%s", want, out)
		}
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := renderTable(nil, nil, nil); got != "" {
		t.Errorf("Expected empty output, got %q", got)
	}
}

func TestRunReport(t *testing.T) {
	dir := t.TempDir()
	raw := core.RawComment{CommentID: "c1", Text: "Linda demais", VideoID: "dQw4w9WgXcQ"}
	payload := output.Assemble(
		[]core.RawComment{raw},
		core.BatchResult{Enriched: []core.EnrichedComment{{
			RawComment: raw,
			Language:   "pt",
			Translated: "Linda demais",
			Sentiment:  core.SentimentPositive,
			Emotion:    core.EmotionJoy,
			Context:    core.ContextAboutSong,
			Keywords:   "linda",
		}}},
		"Comentários positivos.",
		core.Stats{SentimentCounts: core.LabelDistribution{"positivo": 1}},
	)
	meta := core.VideoMeta{VideoID: "dQw4w9WgXcQ", Title: "Canção", OrderUsed: "relevance", GeneratedAt: time.Now()}
	if _, err := output.NewWriter(dir).Write(payload, meta, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var out bytes.Buffer
	if err := runReport(context.Background(), &out, "https://youtu.be/dQw4w9WgXcQ", dir, false); err != nil {
		t.Fatalf("runReport failed: %v", err)
	}

	html, err := os.ReadFile(filepath.Join(dir, "dQw4w9WgXcQ", "relatorio_dQw4w9WgXcQ.html"))
	if err != nil {
		t.Fatalf("Expected HTML report: %v", err)
	}
	if !strings.Contains(string(html), "Comentários positivos.") {
		t.Error("Report should include the saved summary")
	}
	if !strings.Contains(out.String(), "relatorio_dQw4w9WgXcQ.md") {
		t.Errorf("Expected report paths in output, got %q", out.String())
	}

	if err := runReport(context.Background(), &out, "8xg3vE8Ie_E", dir, false); err == nil {
		t.Error("Expected error for a video without saved payload")
	}
}

func TestAskConfirmation(t *testing.T) {
	testCases := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"":      false,
	}
	for input, want := range testCases {
		var out bytes.Buffer
		if got := askConfirmation(strings.NewReader(input), &out, "Continue? "); got != want {
			t.Errorf("askConfirmation(%q) = %v, want %v", input, got, want)
		}
		if out.String() != "Continue? " {
			t.Errorf("Prompt not written: %q", out.String())
		}
	}
}

func TestCacheTables(t *testing.T) {
	s, err := store.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()

	var out bytes.Buffer
	if err := runCacheRuns(&out, s, 10); err != nil {
		t.Fatalf("runCacheRuns failed: %v", err)
	}
	if !strings.Contains(out.String(), "No runs recorded yet") {
		t.Errorf("Unexpected output %q", out.String())
	}

	if err := s.RecordRun(store.Run{RunID: "r1", VideoID: "dQw4w9WgXcQ", Status: "completed", CommentCount: 3, EnrichedCount: 3}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	out.Reset()
	if err := runCacheRuns(&out, s, 10); err != nil {
		t.Fatalf("runCacheRuns failed: %v", err)
	}
	if !strings.Contains(out.String(), "dQw4w9WgXcQ") || !strings.Contains(out.String(), "completed") {
		t.Errorf("Run missing from table:\n%s", out.String())
	}

	out.Reset()
	if err := runCacheStats(&out, s); err != nil {
		t.Fatalf("runCacheStats failed: %v", err)
	}
	if !strings.Contains(out.String(), "Runs recorded") {
		t.Errorf("Unexpected stats output:\n%s", out.String())
	}
}
