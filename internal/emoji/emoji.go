// Package emoji expands known emoji glyphs into Portuguese words so that
// text classification sees the affect they encode.
package emoji

import "strings"

// Mapping pairs a glyph with the word that replaces it.
type Mapping struct {
	Glyph string
	Word  string
}

// table is applied in order. No word contains a glyph, which keeps Normalize idempotent.
var table = []Mapping{
	// alegria
	{"😂", "risada"}, {"🤣", "risada"}, {"😅", "risada nervosa"}, {"😁", "feliz"},
	{"😄", "feliz"}, {"😊", "feliz"}, {"😃", "feliz"}, {"🙂", "feliz leve"},
	{"😆", "muita risada"}, {"😎", "confiante"}, {"🤩", "empolgado"}, {"🥳", "celebrando"},
	{"😺", "feliz"},

	// amor
	{"😍", "amor"}, {"🥰", "carinho"}, {"😘", "beijo"}, {"😗", "beijo leve"},
	{"😻", "amor"}, {"❤️", "amor"}, {"💓", "amor"}, {"💗", "amor"},
	{"💖", "amor"}, {"💘", "amor"}, {"💝", "carinho"}, {"💕", "carinho"},
	{"💞", "carinho"}, {"💟", "afeto"}, {"💌", "amor"}, {"💙", "amor"},
	{"💚", "amor"}, {"💛", "amor"}, {"💜", "amor"}, {"🧡", "amor"},
	{"🩷", "amor"}, {"✨", "brilho"}, {"🤗", "abraço"},

	// tristeza
	{"😢", "triste"}, {"😭", "chorando"}, {"🥺", "suplica"}, {"☹️", "triste"},
	{"😞", "desapontado"}, {"😔", "triste"}, {"😟", "preocupado"},

	// raiva
	{"😡", "raiva"}, {"😠", "raiva"}, {"🤬", "muita raiva"},

	// surpresa
	{"😱", "surpresa"}, {"😮", "surpresa"}, {"😯", "surpresa"}, {"😲", "surpresa"},

	// medo
	{"😨", "medo"}, {"😰", "ansiedade"}, {"😥", "angustia"}, {"🥹", "emoção forte"},

	// nojo
	{"🤢", "nojo"}, {"🤮", "nojo extremo"},

	// neutro
	{"😐", "neutro"}, {"😑", "neutro"}, {"🤔", "pensativo"}, {"🤨", "duvida"},

	// gestos
	{"🙏", "gratidão"}, {"👍", "positivo"}, {"👎", "negativo"}, {"👏", "aplausos"},
	{"🙌", "celebração"}, {"🤝", "parceria"}, {"✌️", "paz"}, {"👌", "ok"},
	{"🤲", "oferta"},

	// animais
	{"🐶", "cachorro"}, {"🐕", "cachorro"}, {"🐱", "gato"}, {"🐈", "gato"},
	{"🐾", "patinhas"},

	// festa e música
	{"🔥", "incrível"}, {"🎉", "festa"}, {"🎊", "celebração"}, {"🎵", "musica"},
	{"🎶", "musica"}, {"🎤", "microfone"}, {"🎧", "audio"}, {"🎼", "melodia"},

	// outros
	{"💀", "chocado"}, {"🤡", "palhaçada"}, {"🌟", "estrela"}, {"⭐", "estrela"},
	{"💥", "impacto"},
}

// Table returns a copy of the glyph table in application order.
func Table() []Mapping {
	out := make([]Mapping, len(table))
	copy(out, table)
	return out
}

// Normalize replaces every mapped glyph in text with its word surrounded by
// single spaces, then trims the result. Spaces already adjacent to a glyph are
// reused instead of doubled, so "🔥🔥 song" becomes "incrível incrível song".
// Unmapped glyphs pass through unchanged.
func Normalize(text string) string {
	for _, m := range table {
		if !strings.Contains(text, m.Glyph) {
			continue
		}
		text = expand(text, m)
	}
	return strings.TrimSpace(text)
}

func expand(text string, m Mapping) string {
	pieces := strings.Split(text, m.Glyph)
	var b strings.Builder
	b.Grow(len(text) + len(pieces)*(len(m.Word)+2))
	b.WriteString(pieces[0])
	for _, piece := range pieces[1:] {
		if !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
		b.WriteString(m.Word)
		b.WriteByte(' ')
		b.WriteString(strings.TrimPrefix(piece, " "))
	}
	return b.String()
}

// Contains reports whether text still holds any mapped glyph.
func Contains(text string) bool {
	for _, m := range table {
		if strings.Contains(text, m.Glyph) {
			return true
		}
	}
	return false
}
