// Package output assembles the run payload and persists it as JSON artifacts.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"murmur/internal/core"
)

// Assemble builds the payload handed to persistence and rendering. Nil slices
// and maps are replaced with empty ones so the JSON shape is stable.
func Assemble(raws []core.RawComment, batch core.BatchResult, summary string, stats core.Stats) core.Payload {
	if raws == nil {
		raws = []core.RawComment{}
	}
	enriched := batch.Enriched
	if enriched == nil {
		enriched = []core.EnrichedComment{}
	}
	return core.Payload{
		RawComments:      raws,
		EnrichedComments: enriched,
		Summary:          summary,
		Stats:            nonNil(stats),
	}
}

func nonNil(s core.Stats) core.Stats {
	if s.SentimentCounts == nil {
		s.SentimentCounts = core.LabelDistribution{}
	}
	if s.EmotionCounts == nil {
		s.EmotionCounts = core.LabelDistribution{}
	}
	if s.ContextCounts == nil {
		s.ContextCounts = core.LabelDistribution{}
	}
	if s.LanguageCounts == nil {
		s.LanguageCounts = core.LabelDistribution{}
	}
	return s
}

// Record is the full artifact stored next to the per-part files.
type Record struct {
	core.Payload
	Meta     core.VideoMeta     `json:"meta"`
	Failures []core.ItemFailure `json:"failures"`
}

// Paths lists the files written for one video.
type Paths struct {
	Dir      string
	Raw      string
	Enriched string
	Stats    string
	Payload  string
}

// PathsFor returns the artifact locations of videoID under baseDir.
func PathsFor(baseDir, videoID string) Paths {
	dir := filepath.Join(baseDir, videoID)
	return Paths{
		Dir:      dir,
		Raw:      filepath.Join(dir, fmt.Sprintf("comentarios_youtube_%s.json", videoID)),
		Enriched: filepath.Join(dir, fmt.Sprintf("comentarios_analisados_%s.json", videoID)),
		Stats:    filepath.Join(dir, fmt.Sprintf("stats_resumo_%s.json", videoID)),
		Payload:  filepath.Join(dir, fmt.Sprintf("payload_%s.json", videoID)),
	}
}

// Writer persists payloads under a base directory, one folder per video.
type Writer struct {
	BaseDir string
}

// NewWriter creates a Writer rooted at baseDir.
func NewWriter(baseDir string) *Writer {
	return &Writer{BaseDir: baseDir}
}

// Write stores the raw comments, enriched comments, stats and full record.
func (w *Writer) Write(payload core.Payload, meta core.VideoMeta, failures []core.ItemFailure) (Paths, error) {
	if meta.VideoID == "" {
		return Paths{}, fmt.Errorf("video ID is required")
	}
	paths := PathsFor(w.BaseDir, meta.VideoID)
	if err := os.MkdirAll(paths.Dir, 0755); err != nil {
		return paths, fmt.Errorf("failed to create output directory: %w", err)
	}
	if failures == nil {
		failures = []core.ItemFailure{}
	}

	files := []struct {
		path string
		data any
	}{
		{paths.Raw, payload.RawComments},
		{paths.Enriched, payload.EnrichedComments},
		{paths.Stats, payload.Stats},
		{paths.Payload, Record{Payload: payload, Meta: meta, Failures: failures}},
	}
	for _, f := range files {
		if err := writeJSON(f.path, f.data); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

// Load reads the full record of videoID back from disk.
func (w *Writer) Load(videoID string) (Record, error) {
	paths := PathsFor(w.BaseDir, videoID)
	data, err := os.ReadFile(paths.Payload)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read payload for %s: %w", videoID, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode payload for %s: %w", videoID, err)
	}
	rec.Payload = Assemble(rec.RawComments, core.BatchResult{Enriched: rec.EnrichedComments}, rec.Summary, rec.Stats)
	if rec.Meta.VideoID == "" {
		rec.Meta.VideoID = videoID
	}
	return rec, nil
}

// List returns the IDs of videos with a stored record, newest first.
func (w *Writer) List() ([]string, error) {
	entries, err := os.ReadDir(w.BaseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list output directory: %w", err)
	}

	type item struct {
		id  string
		mod time.Time
	}
	var items []item
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := os.Stat(PathsFor(w.BaseDir, e.Name()).Payload)
		if err != nil {
			continue
		}
		items = append(items, item{id: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].mod.After(items[j].mod)
	})

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return ids, nil
}

// writeJSON writes data with 4-space indentation and unescaped HTML, replacing
// path atomically.
func writeJSON(path string, data any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
