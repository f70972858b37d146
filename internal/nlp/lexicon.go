package nlp

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon/*.yaml
var embeddedLexicons embed.FS

var ErrModelNotLoaded = errors.New("model data not loaded")

// Lexicon is read-only model data shared by the built-in adapters.
type Lexicon struct {
	Valence      map[string]float64
	Negations    map[string]struct{}
	Intensifiers map[string]float64
	// EmotionsByWord maps a word to its emotion labels in sorted order.
	EmotionsByWord map[string][]string
	Stopwords      map[string]struct{}
}

func (l *Lexicon) IsNegation(word string) bool {
	_, ok := l.Negations[word]
	return ok
}

func (l *Lexicon) IsStopword(word string) bool {
	_, ok := l.Stopwords[word]
	return ok
}

// negated reports whether one of the three tokens before i is a negation.
func (l *Lexicon) negated(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-3; j-- {
		if l.IsNegation(tokens[j]) {
			return true
		}
	}
	return false
}

// ModelHandle owns the lexicon for the lifetime of a process. Load is
// idempotent; adapters receive the handle and resolve the data per call, so
// a closed handle makes them fail instead of reading stale data.
type ModelHandle struct {
	fsys fs.FS

	once sync.Once
	mu   sync.RWMutex
	lex  *Lexicon
	err  error
}

// NewModelHandle returns a handle over the lexicons compiled into the binary.
func NewModelHandle() *ModelHandle {
	return NewModelHandleFS(embeddedLexicons)
}

// NewModelHandleFS reads lexicon/*.yaml from fsys.
func NewModelHandleFS(fsys fs.FS) *ModelHandle {
	return &ModelHandle{fsys: fsys}
}

func (h *ModelHandle) Load() error {
	h.once.Do(func() {
		lex, err := loadLexicon(h.fsys)
		h.mu.Lock()
		h.lex, h.err = lex, err
		h.mu.Unlock()
	})
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

func (h *ModelHandle) Lexicon() (*Lexicon, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.err != nil {
		return nil, h.err
	}
	if h.lex == nil {
		return nil, ErrModelNotLoaded
	}
	return h.lex, nil
}

// Close releases the model data. Subsequent Lexicon calls fail.
func (h *ModelHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lex = nil
	return nil
}

type sentimentFile struct {
	Valence      map[string]float64 `yaml:"valence"`
	Negations    []string           `yaml:"negations"`
	Intensifiers map[string]float64 `yaml:"intensifiers"`
}

type emotionFile struct {
	Emotions map[string][]string `yaml:"emotions"`
}

type stopwordFile struct {
	Stopwords []string `yaml:"stopwords"`
}

func loadLexicon(fsys fs.FS) (*Lexicon, error) {
	var (
		sf sentimentFile
		ef emotionFile
		wf stopwordFile
	)
	if err := readYAML(fsys, "lexicon/sentiment.yaml", &sf); err != nil {
		return nil, err
	}
	if err := readYAML(fsys, "lexicon/emotion.yaml", &ef); err != nil {
		return nil, err
	}
	if err := readYAML(fsys, "lexicon/stopwords.yaml", &wf); err != nil {
		return nil, err
	}
	if len(sf.Valence) == 0 {
		return nil, fmt.Errorf("sentiment lexicon is empty")
	}

	lex := &Lexicon{
		Valence:        sf.Valence,
		Negations:      toSet(sf.Negations),
		Intensifiers:   sf.Intensifiers,
		EmotionsByWord: make(map[string][]string),
		Stopwords:      toSet(wf.Stopwords),
	}
	if lex.Intensifiers == nil {
		lex.Intensifiers = map[string]float64{}
	}
	for label, words := range ef.Emotions {
		for _, w := range words {
			lex.EmotionsByWord[w] = append(lex.EmotionsByWord[w], label)
		}
	}
	for w := range lex.EmotionsByWord {
		labels := lex.EmotionsByWord[w]
		sort.Strings(labels)
		lex.EmotionsByWord[w] = dedupSorted(labels)
	}
	return lex, nil
}

func readYAML(fsys fs.FS, name string, v interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func dedupSorted(s []string) []string {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}
