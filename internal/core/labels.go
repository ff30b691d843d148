package core

// Sentiment is the closed set of sentiment labels.
type Sentiment string

const (
	SentimentPositive Sentiment = "positivo"
	SentimentNegative Sentiment = "negativo"
	SentimentNeutral  Sentiment = "neutro"
)

// Emotion is the closed set of emotion labels.
type Emotion string

const (
	EmotionJoy         Emotion = "alegria"
	EmotionLove        Emotion = "amor"
	EmotionNostalgia   Emotion = "nostalgia"
	EmotionLonging     Emotion = "saudade"
	EmotionSadness     Emotion = "tristeza"
	EmotionMelancholy  Emotion = "melancolia"
	EmotionAnger       Emotion = "raiva"
	EmotionSurprise    Emotion = "surpresa"
	EmotionInspiration Emotion = "inspiração"
	EmotionReflection  Emotion = "reflexão"
	EmotionNeutral     Emotion = "neutro"
)

// Context is the closed set of labels describing how a comment relates to the song.
type Context string

const (
	ContextAboutSong          Context = "sobre_a_musica"
	ContextPersonalExperience Context = "experiencia_pessoal"
	ContextLyricExcerpt       Context = "trecho_de_letra"
	ContextOffTopic           Context = "off_topic"
)

// Sentiments lists the sentiment domain in prompt order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}

// Emotions lists the emotion domain in prompt order.
var Emotions = []Emotion{
	EmotionJoy, EmotionLove, EmotionNostalgia, EmotionLonging, EmotionSadness,
	EmotionMelancholy, EmotionAnger, EmotionSurprise, EmotionInspiration,
	EmotionReflection, EmotionNeutral,
}

// Contexts lists the context domain in prompt order.
var Contexts = []Context{ContextAboutSong, ContextPersonalExperience, ContextLyricExcerpt, ContextOffTopic}

// Valid reports whether s belongs to the sentiment domain.
func (s Sentiment) Valid() bool {
	for _, v := range Sentiments {
		if s == v {
			return true
		}
	}
	return false
}

// Valid reports whether e belongs to the emotion domain.
func (e Emotion) Valid() bool {
	for _, v := range Emotions {
		if e == v {
			return true
		}
	}
	return false
}

// Valid reports whether c belongs to the context domain.
func (c Context) Valid() bool {
	for _, v := range Contexts {
		if c == v {
			return true
		}
	}
	return false
}
