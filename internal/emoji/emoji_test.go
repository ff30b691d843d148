package emoji

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"repeated glyph with trailing text", "🔥🔥 amazing song", "incrível incrível amazing song"},
		{"glyph between words", "amo❤️muito", "amo amor muito"},
		{"glyph surrounded by spaces", "que som 🔥 demais", "que som incrível demais"},
		{"only glyphs", "😂😂", "risada risada"},
		{"multi-word mapping", "😅", "risada nervosa"},
		{"unmapped glyph passes through", "bom 🦄 dia", "bom 🦄 dia"},
		{"plain text untouched", "  nothing to expand  ", "nothing to expand"},
		{"empty", "", ""},
		{"mixed categories", "🎶 saudade 😢", "musica saudade triste"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.input)
			if got != tc.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNormalizeRemovesEveryMappedGlyph(t *testing.T) {
	var b strings.Builder
	for _, m := range Table() {
		b.WriteString("x")
		b.WriteString(m.Glyph)
	}
	input := b.String()

	got := Normalize(input)
	if Contains(got) {
		t.Errorf("Normalized text still contains a mapped glyph: %q", got)
	}
	for _, m := range Table() {
		if strings.Contains(got, m.Glyph) {
			t.Errorf("Glyph %q survived normalization", m.Glyph)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"🔥🔥 amazing song",
		"Essa música 😭😭 me lembra 2009 ❤️",
		"  🎤🎧  só as antigas 👏👏👏 ",
		"plain",
		"",
		"🦄 unmapped ✨",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestTableWordsHoldNoGlyphs(t *testing.T) {
	for _, m := range Table() {
		if Contains(m.Word) {
			t.Errorf("Word %q for glyph %q contains a mapped glyph", m.Word, m.Glyph)
		}
		if m.Word == "" || m.Glyph == "" {
			t.Errorf("Empty mapping entry: %+v", m)
		}
	}
}

func TestTableReturnsCopy(t *testing.T) {
	tbl := Table()
	tbl[0].Word = "changed"
	if Table()[0].Word == "changed" {
		t.Error("Table should return a copy")
	}
}
