// Package classifier binds each comment analysis task to its instruction
// template and forwards it to a text completion backend.
package classifier

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/language"

	"murmur/internal/core"
	"murmur/internal/llm"
)

// Operation names, used in errors and completion traces.
const (
	OpDetectLanguage = "language"
	OpTranslate      = "translate"
	OpSentiment      = "sentiment"
	OpEmotion        = "emotion"
	OpContext        = "context"
	OpKeywords       = "keywords"
	OpSummarize      = "summary"
)

// Options tunes answer validation.
type Options struct {
	// StrictLabels rejects categorical answers outside their label domain.
	StrictLabels bool
}

// DefaultOptions returns strict validation.
func DefaultOptions() Options {
	return Options{StrictLabels: true}
}

// Gateway exposes one method per analysis task.
type Gateway struct {
	completer llm.Completer
	opts      Options
}

// New creates a Gateway over completer.
func New(completer llm.Completer, opts Options) *Gateway {
	return &Gateway{completer: completer, opts: opts}
}

func (g *Gateway) call(ctx context.Context, op, prompt string) (string, error) {
	out, err := g.completer.Complete(llm.WithOperation(ctx, op), prompt)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyCompletion) {
			return "", &Error{Op: op, Err: errors.Join(ErrEmptyResponse, err)}
		}
		return "", &Error{Op: op, Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &Error{Op: op, Err: ErrEmptyResponse}
	}
	return out, nil
}

// DetectLanguage asks for the ISO-639-1 code of text. The answer is returned untouched.
func (g *Gateway) DetectLanguage(ctx context.Context, text string) (string, error) {
	return g.call(ctx, OpDetectLanguage, render(languagePrompt, text))
}

// Translate asks for a Brazilian Portuguese rendering of text, or text itself when lang is "pt".
func (g *Gateway) Translate(ctx context.Context, text, lang string) (string, error) {
	return g.call(ctx, OpTranslate, renderTranslate(text, lang))
}

// ClassifySentiment asks for one of positivo, negativo, neutro.
func (g *Gateway) ClassifySentiment(ctx context.Context, text string) (string, error) {
	return g.call(ctx, OpSentiment, render(sentimentPrompt, text))
}

// ClassifyEmotion asks for one emotion of the closed emotion list.
func (g *Gateway) ClassifyEmotion(ctx context.Context, text string) (string, error) {
	return g.call(ctx, OpEmotion, render(emotionPrompt, text))
}

// ClassifyContext asks how the comment relates to the song.
func (g *Gateway) ClassifyContext(ctx context.Context, text string) (string, error) {
	return g.call(ctx, OpContext, render(contextPrompt, text))
}

// ExtractKeywords asks for 5 to 10 comma-separated keywords.
func (g *Gateway) ExtractKeywords(ctx context.Context, text string) (string, error) {
	return g.call(ctx, OpKeywords, render(keywordsPrompt, text))
}

// Summarize asks for a single-paragraph synthesis of a comment corpus.
func (g *Gateway) Summarize(ctx context.Context, text string) (string, error) {
	return g.call(ctx, OpSummarize, render(summaryPrompt, text))
}

// Language detects and normalizes the language code of text.
func (g *Gateway) Language(ctx context.Context, text string) (string, error) {
	raw, err := g.DetectLanguage(ctx, text)
	if err != nil {
		return "", err
	}
	code := strings.ToLower(strings.TrimSpace(raw))
	if !g.opts.StrictLabels {
		return code, nil
	}

	code = repairLabel(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if len(code) != 2 {
		return "", &Error{Op: OpDetectLanguage, Answer: raw, Err: ErrOutOfDomain}
	}
	if _, err := language.ParseBase(code); err != nil {
		return "", &Error{Op: OpDetectLanguage, Answer: raw, Err: errors.Join(ErrOutOfDomain, err)}
	}
	return code, nil
}

// Translation returns the trimmed translation of text.
func (g *Gateway) Translation(ctx context.Context, text, lang string) (string, error) {
	out, err := g.Translate(ctx, text, lang)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Sentiment classifies text and validates the label.
func (g *Gateway) Sentiment(ctx context.Context, text string) (core.Sentiment, error) {
	raw, err := g.ClassifySentiment(ctx, text)
	if err != nil {
		return "", err
	}
	label := core.Sentiment(g.normalize(raw))
	if g.opts.StrictLabels && !label.Valid() {
		return "", &Error{Op: OpSentiment, Answer: raw, Err: ErrOutOfDomain}
	}
	return label, nil
}

// Emotion classifies text and validates the label.
func (g *Gateway) Emotion(ctx context.Context, text string) (core.Emotion, error) {
	raw, err := g.ClassifyEmotion(ctx, text)
	if err != nil {
		return "", err
	}
	label := core.Emotion(g.normalize(raw))
	if g.opts.StrictLabels && !label.Valid() {
		return "", &Error{Op: OpEmotion, Answer: raw, Err: ErrOutOfDomain}
	}
	return label, nil
}

// Context classifies text and validates the label.
func (g *Gateway) Context(ctx context.Context, text string) (core.Context, error) {
	raw, err := g.ClassifyContext(ctx, text)
	if err != nil {
		return "", err
	}
	label := core.Context(g.normalize(raw))
	if g.opts.StrictLabels && !label.Valid() {
		return "", &Error{Op: OpContext, Answer: raw, Err: ErrOutOfDomain}
	}
	return label, nil
}

// Keywords extracts keywords and returns them joined by ", ".
// In strict mode terms are trimmed, deduplicated and stripped of hashtags.
func (g *Gateway) Keywords(ctx context.Context, text string) (string, error) {
	raw, err := g.ExtractKeywords(ctx, text)
	if err != nil {
		return "", err
	}
	if !g.opts.StrictLabels {
		return strings.TrimSpace(raw), nil
	}

	seen := make(map[string]bool)
	var terms []string
	for _, term := range core.SplitKeywords(strings.ReplaceAll(raw, "\n", ",")) {
		term = strings.Trim(term, "#*\"'.`")
		key := strings.ToLower(term)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return "", &Error{Op: OpKeywords, Answer: raw, Err: ErrOutOfDomain}
	}
	return strings.Join(terms, ", "), nil
}

// Summary summarizes text and trims the answer.
func (g *Gateway) Summary(ctx context.Context, text string) (string, error) {
	out, err := g.Summarize(ctx, text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *Gateway) normalize(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	if g.opts.StrictLabels {
		label = repairLabel(label)
	}
	return label
}

var labelAliases = map[string]string{
	"inspiracao":          string(core.EmotionInspiration),
	"reflexao":            string(core.EmotionReflection),
	"sobre_a_música":      string(core.ContextAboutSong),
	"experiência_pessoal": string(core.ContextPersonalExperience),
}

// repairLabel strips decoration models commonly add around a single-word
// answer: quotes, markdown emphasis, trailing punctuation, and spaces or
// hyphens in place of underscores.
func repairLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.TrimPrefix(label, "resposta:")
	label = strings.Trim(label, " \t\r\n\"'`*.,;:!()[]")
	label = strings.Join(strings.Fields(label), "_")
	label = strings.ReplaceAll(label, "-", "_")
	if alias, ok := labelAliases[label]; ok {
		return alias
	}
	return label
}
