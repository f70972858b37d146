package nlp

import (
	"context"
	"math"
	"sort"
)

// EmotionAdapter maps words to emotion labels.
type EmotionAdapter struct {
	name   string
	spec   Spec
	handle *ModelHandle
}

func NewEmotionAdapter(name string, spec Spec, handle *ModelHandle) *EmotionAdapter {
	return &EmotionAdapter{name: name, spec: spec, handle: handle}
}

func (a *EmotionAdapter) Name() string { return a.name }
func (a *EmotionAdapter) Kind() Kind   { return KindEmotion }
func (a *EmotionAdapter) Spec() Spec   { return a.spec }

func (a *EmotionAdapter) Analyze(ctx context.Context, text *NormalizedText) (*ModelResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lex, err := a.handle.Lexicon()
	if err != nil {
		return nil, err
	}
	tokens := text.Limit(a.spec.MaxInputTokens).Tokens

	counts := make(map[string]int)
	hits := 0
	for i, tok := range tokens {
		labels, ok := lex.EmotionsByWord[tok]
		if !ok || lex.negated(tokens, i) {
			continue
		}
		hits++
		for _, label := range labels {
			counts[label]++
		}
	}

	emotions := make([]Emotion, 0, len(counts))
	for label, n := range counts {
		emotions = append(emotions, Emotion{
			Label:      label,
			Confidence: round4(math.Min(1, 0.4+0.2*float64(n))),
		})
	}
	sortEmotions(emotions)

	return &ModelResult{
		Adapter:    a.name,
		Kind:       KindEmotion,
		Emotions:   emotions,
		Confidence: hitConfidence(hits),
	}, nil
}

// sortEmotions orders by confidence descending, then label.
func sortEmotions(emotions []Emotion) {
	sort.Slice(emotions, func(i, j int) bool {
		if emotions[i].Confidence != emotions[j].Confidence {
			return emotions[i].Confidence > emotions[j].Confidence
		}
		return emotions[i].Label < emotions[j].Label
	})
}
