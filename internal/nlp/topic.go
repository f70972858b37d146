package nlp

import (
	"context"
	"math"
	"sort"
	"unicode"
	"unicode/utf8"
)

const maxTopicCandidates = 10

// TopicAdapter extracts keywords by stopword-filtered term frequency.
type TopicAdapter struct {
	name   string
	spec   Spec
	handle *ModelHandle
}

func NewTopicAdapter(name string, spec Spec, handle *ModelHandle) *TopicAdapter {
	return &TopicAdapter{name: name, spec: spec, handle: handle}
}

func (a *TopicAdapter) Name() string { return a.name }
func (a *TopicAdapter) Kind() Kind   { return KindTopic }
func (a *TopicAdapter) Spec() Spec   { return a.spec }

func (a *TopicAdapter) Analyze(ctx context.Context, text *NormalizedText) (*ModelResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lex, err := a.handle.Lexicon()
	if err != nil {
		return nil, err
	}
	tokens := text.Limit(a.spec.MaxInputTokens).Tokens

	tf := make(map[string]int)
	var order []string
	maxTF := 0
	for _, tok := range tokens {
		if !isTopicCandidate(lex, tok) {
			continue
		}
		if tf[tok] == 0 {
			order = append(order, tok)
		}
		tf[tok]++
		if tf[tok] > maxTF {
			maxTF = tf[tok]
		}
	}

	topics := make([]Topic, 0, len(order))
	for _, tok := range order {
		topics = append(topics, Topic{Label: tok, Relevance: float64(tf[tok]) / float64(maxTF)})
	}
	// stable: equal relevance keeps first-occurrence order
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Relevance > topics[j].Relevance
	})
	if len(topics) > maxTopicCandidates {
		topics = topics[:maxTopicCandidates]
	}

	return &ModelResult{
		Adapter:    a.name,
		Kind:       KindTopic,
		Topics:     topics,
		Confidence: round4(math.Min(1, 0.3+0.1*float64(len(order)))),
	}, nil
}

func isTopicCandidate(lex *Lexicon, tok string) bool {
	if utf8.RuneCountInString(tok) < 3 || lex.IsStopword(tok) || lex.IsNegation(tok) {
		return false
	}
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
