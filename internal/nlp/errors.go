package nlp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput is returned for text with no tokens once markup and
	// punctuation are removed. Never retried.
	ErrInvalidInput = errors.New("invalid input: no analyzable text")

	ErrAdapterTimeout  = errors.New("adapter timed out")
	ErrMalformedOutput = errors.New("adapter returned malformed output")
)

// AdapterError wraps the last failure of an adapter after its retries ran out.
type AdapterError struct {
	Adapter  string
	Kind     Kind
	Attempts int
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s failed after %d attempt(s): %v", e.Adapter, e.Attempts, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// AggregationError means no adapter produced a usable result.
type AggregationError struct {
	Failures []*AdapterError
}

func (e *AggregationError) Error() string {
	if len(e.Failures) == 0 {
		return "analysis unavailable: no adapter results"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return "analysis unavailable: " + strings.Join(parts, "; ")
}

// ErrorType classifies err for metrics labels and adapter reports.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAdapterTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedOutput):
		return "malformed_output"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
