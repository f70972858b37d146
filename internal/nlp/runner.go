package nlp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunnerConfig holds retry and timeout settings shared by all adapters.
type RunnerConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JobTimeout     time.Duration
}

// CallRecorder receives one event per adapter attempt.
type CallRecorder interface {
	RecordAdapterCall(adapter string, d time.Duration, err error, errType string)
}

// Outcome is the per-adapter summary of a run.
type Outcome struct {
	Adapter  string
	Kind     Kind
	OK       bool
	Attempts int
	Latency  time.Duration
	Err      error
}

// RunResult holds everything the aggregator needs. Slices follow adapter
// order regardless of completion order.
type RunResult struct {
	Results   []*ModelResult
	Failures  []*AdapterError
	Outcomes  []Outcome
	Expected  []Kind
	Truncated bool
}

// Runner fans a text out to every adapter concurrently. A failing adapter
// never cancels its siblings.
type Runner struct {
	adapters []Adapter
	cfg      RunnerConfig
	logger   *zap.Logger
	recorder CallRecorder
}

type RunnerOption func(*Runner)

func WithRecorder(rec CallRecorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

func NewRunner(adapters []Adapter, cfg RunnerConfig, logger *zap.Logger, opts ...RunnerOption) *Runner {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{adapters: adapters, cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Adapters() []Adapter {
	return r.adapters
}

// Run executes all adapters and collects their outcomes. It only returns an
// error when ctx itself is cancelled; adapter failures are reported in the
// result.
func (r *Runner) Run(ctx context.Context, text *NormalizedText) (*RunResult, error) {
	jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
	defer cancel()

	n := len(r.adapters)
	outcomes := make([]Outcome, n)
	results := make([]*ModelResult, n)

	g, gctx := errgroup.WithContext(jobCtx)
	for i, a := range r.adapters {
		i, a := i, a
		g.Go(func() error {
			results[i], outcomes[i] = r.runAdapter(gctx, a, text)
			// siblings keep running whatever happens here
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := &RunResult{
		Outcomes:  outcomes,
		Expected:  make([]Kind, 0, n),
		Truncated: text.Truncated,
	}
	for i, a := range r.adapters {
		run.Expected = append(run.Expected, a.Kind())
		if outcomes[i].OK {
			run.Results = append(run.Results, results[i])
			continue
		}
		run.Failures = append(run.Failures, &AdapterError{
			Adapter:  a.Name(),
			Kind:     a.Kind(),
			Attempts: outcomes[i].Attempts,
			Err:      outcomes[i].Err,
		})
	}
	return run, nil
}

func (r *Runner) runAdapter(ctx context.Context, a Adapter, text *NormalizedText) (*ModelResult, Outcome) {
	spec := a.Spec()
	retries := spec.MaxRetries
	if retries <= 0 {
		retries = r.cfg.MaxRetries
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.InitialBackoff
	bo.Multiplier = 2
	bo.MaxInterval = r.cfg.MaxBackoff
	bo.RandomizationFactor = 0.2
	// bounded by the retry budget and the job context instead
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx)

	var (
		result   *ModelResult
		lastErr  error
		attempts int
		start    = time.Now()
	)
	op := func() error {
		attempts++
		res, d, err := r.call(ctx, a, spec.LatencyBound, text)
		if r.recorder != nil {
			r.recorder.RecordAdapterCall(a.Name(), d, err, ErrorType(err))
		}
		if err != nil {
			lastErr = err
			r.logger.Debug("adapter attempt failed",
				zap.String("adapter", a.Name()),
				zap.Int("attempt", attempts),
				zap.Error(err))
			if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrModelNotLoaded) {
				return backoff.Permanent(err)
			}
			return err
		}
		res.Latency = d
		result = res
		return nil
	}

	err := backoff.Retry(op, policy)
	outcome := Outcome{
		Adapter:  a.Name(),
		Kind:     a.Kind(),
		Attempts: attempts,
		Latency:  time.Since(start),
	}
	if err == nil {
		outcome.OK = true
		return result, outcome
	}

	if lastErr == nil {
		lastErr = err
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(lastErr, ErrAdapterTimeout) {
		lastErr = fmt.Errorf("%w: job deadline reached: %v", ErrAdapterTimeout, lastErr)
	}
	outcome.Err = lastErr
	r.logger.Warn("adapter failed",
		zap.String("adapter", a.Name()),
		zap.String("kind", string(a.Kind())),
		zap.Int("attempts", attempts),
		zap.Error(lastErr))
	return nil, outcome
}

type callResult struct {
	res *ModelResult
	err error
}

// call runs one attempt bounded by the adapter's latency bound. An adapter
// that ignores its context is abandoned once the bound passes.
func (r *Runner) call(ctx context.Context, a Adapter, bound time.Duration, text *NormalizedText) (*ModelResult, time.Duration, error) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if bound > 0 {
		callCtx, cancel = context.WithTimeout(ctx, bound)
	}
	defer cancel()

	start := time.Now()
	done := make(chan callResult, 1)
	go func() {
		res, err := a.Analyze(callCtx, text)
		done <- callResult{res, err}
	}()

	var out callResult
	select {
	case out = <-done:
	case <-callCtx.Done():
		out.err = callCtx.Err()
	}
	d := time.Since(start)

	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, d, fmt.Errorf("%w after %s: %v", ErrAdapterTimeout, d.Round(time.Millisecond), out.err)
		}
		return nil, d, out.err
	}
	if err := validateResult(a, out.res); err != nil {
		return nil, d, err
	}
	out.res.Adapter = a.Name()
	out.res.Kind = a.Kind()
	return out.res, d, nil
}

func validateResult(a Adapter, res *ModelResult) error {
	if res == nil {
		return fmt.Errorf("%w: nil result", ErrMalformedOutput)
	}
	if res.Kind != "" && res.Kind != a.Kind() {
		return fmt.Errorf("%w: kind %s from %s adapter", ErrMalformedOutput, res.Kind, a.Kind())
	}
	if !inRange(res.Confidence, 0, 1) {
		return fmt.Errorf("%w: confidence %v", ErrMalformedOutput, res.Confidence)
	}
	if a.Kind() == KindSentiment {
		if res.Sentiment == nil || !inRange(*res.Sentiment, -1, 1) {
			return fmt.Errorf("%w: sentiment score missing or out of range", ErrMalformedOutput)
		}
	}
	for _, e := range res.Emotions {
		if e.Label == "" || !inRange(e.Confidence, 0, 1) {
			return fmt.Errorf("%w: emotion %q", ErrMalformedOutput, e.Label)
		}
	}
	for _, t := range res.Topics {
		if t.Label == "" || math.IsNaN(t.Relevance) || t.Relevance < 0 {
			return fmt.Errorf("%w: topic %q", ErrMalformedOutput, t.Label)
		}
	}
	return nil
}

func inRange(f, lo, hi float64) bool {
	return !math.IsNaN(f) && f >= lo && f <= hi
}
