package nlp

import (
	"context"
	"math"
)

const (
	// normalizationAlpha approximates the max expected valence sum.
	normalizationAlpha = 15.0
	negationScalar     = -0.74
)

// SentimentAdapter scores text with the valence lexicon.
type SentimentAdapter struct {
	name   string
	spec   Spec
	handle *ModelHandle
}

func NewSentimentAdapter(name string, spec Spec, handle *ModelHandle) *SentimentAdapter {
	return &SentimentAdapter{name: name, spec: spec, handle: handle}
}

func (a *SentimentAdapter) Name() string { return a.name }
func (a *SentimentAdapter) Kind() Kind   { return KindSentiment }
func (a *SentimentAdapter) Spec() Spec   { return a.spec }

func (a *SentimentAdapter) Analyze(ctx context.Context, text *NormalizedText) (*ModelResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lex, err := a.handle.Lexicon()
	if err != nil {
		return nil, err
	}
	tokens := text.Limit(a.spec.MaxInputTokens).Tokens

	var (
		sum  float64
		hits int
	)
	for i, tok := range tokens {
		v, ok := lex.Valence[tok]
		if !ok {
			continue
		}
		hits++
		if i > 0 {
			if boost, ok := lex.Intensifiers[tokens[i-1]]; ok {
				if v > 0 {
					v += boost
				} else {
					v -= boost
				}
			}
		}
		if lex.negated(tokens, i) {
			v *= negationScalar
		}
		sum += v
	}

	score := normalizeValence(sum)
	return &ModelResult{
		Adapter:    a.name,
		Kind:       KindSentiment,
		Sentiment:  &score,
		Confidence: hitConfidence(hits),
	}, nil
}

// normalizeValence maps an unbounded valence sum into (-1, 1).
func normalizeValence(sum float64) float64 {
	if sum == 0 {
		return 0
	}
	return sum / math.Sqrt(sum*sum+normalizationAlpha)
}

// hitConfidence grows with lexicon evidence and saturates at three hits.
func hitConfidence(hits int) float64 {
	if hits == 0 {
		return 0.3
	}
	return 0.5 + 0.5*math.Min(1, float64(hits)/3)
}

// SentimentLabel buckets a score into positive, negative or neutral.
func SentimentLabel(score float64) string {
	switch {
	case score > 0.05:
		return "positive"
	case score < -0.05:
		return "negative"
	default:
		return "neutral"
	}
}
