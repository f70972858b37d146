package nlp

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubAdapter returns canned results and counts calls.
type stubAdapter struct {
	name   string
	kind   Kind
	spec   Spec
	result *ModelResult
	err    error
	// failFirst fails this many calls before succeeding
	failFirst int32
	block     bool
	calls     atomic.Int32
}

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) Kind() Kind   { return s.kind }
func (s *stubAdapter) Spec() Spec   { return s.spec }

func (s *stubAdapter) Analyze(ctx context.Context, _ *NormalizedText) (*ModelResult, error) {
	n := s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if n <= s.failFirst {
		return nil, ErrMalformedOutput
	}
	if s.err != nil {
		return nil, s.err
	}
	r := *s.result
	return &r, nil
}

func testHandle(t *testing.T) *ModelHandle {
	t.Helper()
	h := NewModelHandle()
	require.NoError(t, h.Load())
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func normalize(t *testing.T, text string) *NormalizedText {
	t.Helper()
	nt, err := NewNormalizer(0).Normalize(text)
	require.NoError(t, err)
	return nt
}

func ptr(f float64) *float64 { return &f }

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
