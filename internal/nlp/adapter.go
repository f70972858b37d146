package nlp

import (
	"context"
	"time"
)

// FailureMode names how an adapter is expected to fail.
type FailureMode string

const (
	FailureTimeout   FailureMode = "timeout"
	FailureMalformed FailureMode = "malformed-output"
)

// Spec declares the operating envelope of an adapter.
type Spec struct {
	MaxInputTokens int
	LatencyBound   time.Duration
	MaxRetries     int
	FailureMode    FailureMode
}

// Adapter is one analysis model. Implementations must not keep mutable state
// between calls; the runner invokes them from several goroutines.
type Adapter interface {
	Name() string
	Kind() Kind
	Spec() Spec
	Analyze(ctx context.Context, text *NormalizedText) (*ModelResult, error)
}
