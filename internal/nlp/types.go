// Package nlp turns journal text into an aggregated analysis: it normalizes
// input, runs sentiment, emotion and topic adapters concurrently and merges
// their results deterministically.
package nlp

import (
	"time"
)

// Kind is the analysis dimension an adapter covers.
type Kind string

const (
	KindSentiment Kind = "sentiment"
	KindEmotion   Kind = "emotion"
	KindTopic     Kind = "topic"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSentiment, KindEmotion, KindTopic:
		return true
	}
	return false
}

// NormalizedText is the cleaned, tokenized form of a journal entry.
type NormalizedText struct {
	Text           string
	Tokens         []string
	Truncated      bool
	OriginalTokens int
}

// Limit returns a view of t holding at most n tokens. The receiver is not
// modified; adapters with a tighter budget than the normalizer call it.
func (t *NormalizedText) Limit(n int) *NormalizedText {
	if n <= 0 || len(t.Tokens) <= n {
		return t
	}
	tokens := t.Tokens[:n:n]
	return &NormalizedText{
		Text:           joinTokens(tokens),
		Tokens:         tokens,
		Truncated:      true,
		OriginalTokens: t.OriginalTokens,
	}
}

type Emotion struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type Topic struct {
	Label     string  `json:"label"`
	Relevance float64 `json:"relevance"`
}

// ModelResult is the output of a single adapter. Sentiment is set only by
// sentiment adapters.
type ModelResult struct {
	Adapter    string
	Kind       Kind
	Sentiment  *float64
	Emotions   []Emotion
	Topics     []Topic
	Confidence float64
	Latency    time.Duration
}

// Analysis is the merged view of all adapter results for one text.
type Analysis struct {
	SentimentScore   float64
	SentimentLabel   string
	Emotions         []Emotion
	Topics           []Topic
	Confidence       float64
	LowConfidence    bool
	Truncated        bool
	SentimentMissing bool
	EmotionsMissing  bool
	TopicsMissing    bool
	MissingAdapters  []string
}
