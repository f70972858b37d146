package nlp

import (
	"context"
)

// Analyzer chains normalization, the adapter fan-out and aggregation.
type Analyzer struct {
	normalizer *Normalizer
	runner     *Runner
	aggregator *Aggregator
}

func NewAnalyzer(runner *Runner, aggregator *Aggregator) *Analyzer {
	return &Analyzer{
		normalizer: NewNormalizerFor(runner.Adapters()),
		runner:     runner,
		aggregator: aggregator,
	}
}

// Normalize exposes the analyzer's normalizer so callers can validate text
// before queueing it.
func (a *Analyzer) Normalize(raw string) (*NormalizedText, error) {
	return a.normalizer.Normalize(raw)
}

// Run fans text out to every adapter.
func (a *Analyzer) Run(ctx context.Context, text *NormalizedText) (*RunResult, error) {
	return a.runner.Run(ctx, text)
}

// Aggregate merges a run into one analysis.
func (a *Analyzer) Aggregate(run *RunResult) (*Analysis, error) {
	return a.aggregator.Aggregate(run)
}

// Analyze returns the merged analysis and the raw run. The run is returned
// alongside an *AggregationError so callers can report per-adapter failures.
func (a *Analyzer) Analyze(ctx context.Context, raw string) (*Analysis, *RunResult, error) {
	text, err := a.Normalize(raw)
	if err != nil {
		return nil, nil, err
	}
	run, err := a.Run(ctx, text)
	if err != nil {
		return nil, nil, err
	}
	analysis, err := a.Aggregate(run)
	if err != nil {
		return nil, run, err
	}
	return analysis, run, nil
}
