package nlp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(0)

	got, err := n.Normalize("I feel GREAT and hopeful today!")
	require.NoError(t, err)
	assert.Equal(t, []string{"i", "feel", "great", "and", "hopeful", "today"}, got.Tokens)
	assert.Equal(t, "i feel great and hopeful today", got.Text)
	assert.False(t, got.Truncated)
	assert.Equal(t, 6, got.OriginalTokens)
}

func TestNormalizer_BlankInput(t *testing.T) {
	n := NewNormalizer(0)

	for _, in := range []string{"", "   ", "\n\t", "<p> </p>", "!!! ..."} {
		_, err := n.Normalize(in)
		assert.ErrorIs(t, err, ErrInvalidInput, "input %q", in)
	}
}

func TestNormalizer_StripsMarkup(t *testing.T) {
	n := NewNormalizer(0)

	got, err := n.Normalize("<p>Feeling <b>calm</b> &amp; rested</p>")
	require.NoError(t, err)
	assert.Equal(t, []string{"feeling", "calm", "rested"}, got.Tokens)
}

func TestNormalizer_Unicode(t *testing.T) {
	n := NewNormalizer(0)

	// fullwidth letters fold under NFKC, curly apostrophe kept inside words
	got, err := n.Normalize("ＨＡＰＰＹ but I don’t know")
	require.NoError(t, err)
	assert.Equal(t, []string{"happy", "but", "i", "don't", "know"}, got.Tokens)
}

func TestNormalizer_Truncates(t *testing.T) {
	n := NewNormalizer(4)

	got, err := n.Normalize(strings.Repeat("word ", 10))
	require.NoError(t, err)
	assert.Len(t, got.Tokens, 4)
	assert.True(t, got.Truncated)
	assert.Equal(t, 10, got.OriginalTokens)
}

func TestNewNormalizerFor_PicksSmallestBudget(t *testing.T) {
	adapters := []Adapter{
		&stubAdapter{name: "a", spec: Spec{MaxInputTokens: 2048}},
		&stubAdapter{name: "b", spec: Spec{MaxInputTokens: 512}},
		&stubAdapter{name: "c", spec: Spec{}},
	}
	assert.Equal(t, 512, NewNormalizerFor(adapters).MaxTokens())
	assert.Equal(t, 0, NewNormalizerFor(nil).MaxTokens())
}

func TestNormalizedText_Limit(t *testing.T) {
	text := &NormalizedText{Tokens: []string{"a", "b", "c"}, Text: "a b c", OriginalTokens: 3}

	assert.Same(t, text, text.Limit(0))
	assert.Same(t, text, text.Limit(5))

	limited := text.Limit(2)
	assert.Equal(t, []string{"a", "b"}, limited.Tokens)
	assert.True(t, limited.Truncated)
	assert.False(t, text.Truncated)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"it's 2am", []string{"it's", "2am"}},
		{"'quoted'", []string{"quoted"}},
		{"rock'n'roll", []string{"rock'n'roll"}},
		{"a-b_c", []string{"a", "b", "c"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tokenize(tt.in), tt.in)
	}
}
