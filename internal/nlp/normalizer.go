package nlp

import (
	"strings"
	"unicode"

	"github.com/k3a/html2text"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalizer cleans raw journal text and truncates it to a token budget.
// It is safe for concurrent use.
type Normalizer struct {
	maxTokens int
}

// NewNormalizer returns a normalizer keeping at most maxTokens tokens.
// Zero or negative means no limit.
func NewNormalizer(maxTokens int) *Normalizer {
	return &Normalizer{maxTokens: maxTokens}
}

// NewNormalizerFor sizes the normalizer to the most restrictive adapter.
func NewNormalizerFor(adapters []Adapter) *Normalizer {
	limit := 0
	for _, a := range adapters {
		m := a.Spec().MaxInputTokens
		if m > 0 && (limit == 0 || m < limit) {
			limit = m
		}
	}
	return NewNormalizer(limit)
}

func (n *Normalizer) MaxTokens() int {
	return n.maxTokens
}

// Normalize strips markup, applies NFKC and case folding, then tokenizes.
// Blank input, or input that is blank once markup is removed, yields
// ErrInvalidInput.
func (n *Normalizer) Normalize(raw string) (*NormalizedText, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidInput
	}

	text := raw
	if strings.ContainsAny(text, "<&") {
		text = html2text.HTML2Text(text)
	}
	text = norm.NFKC.String(text)
	// cases.Caser is stateful, one per call
	text = cases.Fold().String(text)

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrInvalidInput
	}

	out := &NormalizedText{
		Tokens:         tokens,
		OriginalTokens: len(tokens),
	}
	if n.maxTokens > 0 && len(tokens) > n.maxTokens {
		out.Tokens = tokens[:n.maxTokens:n.maxTokens]
		out.Truncated = true
	}
	out.Text = joinTokens(out.Tokens)
	return out, nil
}

// Tokenize splits text into runs of letters and digits. An apostrophe
// between two letters stays inside the word, so "don't" is one token.
func Tokenize(text string) []string {
	runes := []rune(text)
	var (
		tokens []string
		cur    []rune
	)
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur = append(cur, r)
		case isApostrophe(r) && len(cur) > 0 && unicode.IsLetter(runes[i-1]) &&
			i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			cur = append(cur, '\'')
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

func joinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}
