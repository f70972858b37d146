package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/nlp"
	"github.com/123sania456789/MindTrackAI/internal/pkg/metrics"
	"github.com/123sania456789/MindTrackAI/internal/pkg/pubsub"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
	"github.com/123sania456789/MindTrackAI/internal/repository"
)

// defaultRetryDelay is how long a message waits after a transient failure
// before it is handed out again.
const defaultRetryDelay = 2 * time.Second

// Queue is the part of the redis queue workers use.
type Queue interface {
	Push(ctx context.Context, msg *queue.JobMessage) error
	Pop(ctx context.Context, timeout time.Duration) (*queue.Delivery, error)
	Ack(ctx context.Context, d *queue.Delivery) error
	Retry(ctx context.Context, d *queue.Delivery, delay time.Duration) error
	Length(ctx context.Context) (int64, error)
}

// JobStore is the job state machine as seen by a worker.
type JobStore interface {
	GetByID(ctx context.Context, id int64) (*model.AnalysisJob, error)
	Claim(ctx context.Context, id int64) (string, bool, error)
	CompleteSucceeded(ctx context.Context, id int64, token string, report model.AdapterReport, elapsed time.Duration, ann *model.Annotation) error
	MarkFailed(ctx context.Context, id int64, token string, report model.AdapterReport, elapsed time.Duration, errMsg string) error
}

type Publisher interface {
	PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error
}

// Archiver copies a saved annotation somewhere outside the database.
type Archiver interface {
	ArchiveAnnotation(ctx context.Context, ann *model.Annotation) (string, error)
}

// Processor runs one analysis job from claim to terminal state.
type Processor struct {
	jobs       JobStore
	queue      Queue
	analyzer   *nlp.Analyzer
	publisher  Publisher
	archiver   Archiver
	metrics    *metrics.PipelineMetrics
	logger     *zap.Logger
	retryDelay time.Duration
}

type ProcessorOption func(*Processor)

// WithArchiver enables best-effort archiving of every saved annotation.
func WithArchiver(a Archiver) ProcessorOption {
	return func(p *Processor) { p.archiver = a }
}

func WithMetrics(m *metrics.PipelineMetrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

func WithRetryDelay(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.retryDelay = d }
}

func NewProcessor(jobs JobStore, q Queue, analyzer *nlp.Analyzer, publisher Publisher, logger *zap.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Processor{
		jobs:       jobs,
		queue:      q,
		analyzer:   analyzer,
		publisher:  publisher,
		logger:     logger,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process handles one delivery. The delivery is acked once the job reached a
// terminal state or can no longer be run by this worker; it is left
// unacked only when ctx was cancelled mid-run.
func (p *Processor) Process(ctx context.Context, d *queue.Delivery) error {
	log := p.logger.With(zap.Int64("job_id", d.JobID), zap.Int64("entry_id", d.EntryID))

	job, err := p.jobs.GetByID(ctx, d.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("job not found, dropping message")
			return p.ack(ctx, d)
		}
		return p.retry(ctx, d, fmt.Errorf("failed to load job: %w", err))
	}

	token, ok, err := p.jobs.Claim(ctx, job.ID)
	if err != nil {
		return p.retry(ctx, d, fmt.Errorf("failed to claim job: %w", err))
	}
	if !ok {
		// cancelled, finished, or owned by another worker
		log.Debug("claim lost, dropping message", zap.String("status", job.Status))
		return p.ack(ctx, d)
	}

	p.metrics.JobStarted()
	defer p.metrics.JobFinished()
	start := time.Now()
	log = log.With(zap.Int("attempt", job.Attempts+1))
	log.Info("processing job")

	analysis, run, err := p.analyze(ctx, job)
	if err != nil && ctx.Err() != nil {
		// shutting down: the sweep requeues the job once it goes stale
		log.Info("job interrupted by shutdown")
		return ctx.Err()
	}
	report := buildReport(run)

	if err != nil {
		return p.fail(ctx, d, job, token, report, time.Since(start), err, log)
	}

	p.publish(ctx, job, model.JobStatusRunning, pubsub.StepSaving, "")

	ann := toAnnotation(job, analysis)
	elapsed := time.Since(start)
	if err := p.jobs.CompleteSucceeded(ctx, job.ID, token, report, elapsed, ann); err != nil {
		if errors.Is(err, repository.ErrClaimLost) {
			log.Info("job cancelled or requeued while running, discarding results")
			p.metrics.RecordJob("discarded", elapsed)
			return p.ack(ctx, d)
		}
		perr := &PersistenceError{Op: "complete", Err: err}
		log.Error("failed to save analysis", zap.Error(perr))
		_ = p.ack(ctx, d)
		return perr
	}

	p.metrics.AnnotationSaved()
	p.metrics.RecordJob(model.JobStatusSucceeded, elapsed)
	p.archive(ctx, ann, log)
	p.publish(ctx, job, model.JobStatusSucceeded, pubsub.StepDone, "")

	log.Info("job succeeded",
		zap.Duration("elapsed", elapsed),
		zap.String("sentiment", ann.SentimentLabel),
		zap.Float64("confidence", ann.Confidence),
		zap.Strings("missing_adapters", ann.MissingAdapters))
	return p.ack(ctx, d)
}

// analyze runs the analyzer one stage at a time so clients see each step.
func (p *Processor) analyze(ctx context.Context, job *model.AnalysisJob) (*nlp.Analysis, *nlp.RunResult, error) {
	p.publish(ctx, job, model.JobStatusRunning, pubsub.StepNormalizing, "")
	text, err := p.analyzer.Normalize(job.Text)
	if err != nil {
		return nil, nil, err
	}

	p.publish(ctx, job, model.JobStatusRunning, pubsub.StepAnalyzing, "")
	run, err := p.analyzer.Run(ctx, text)
	if err != nil {
		return nil, nil, err
	}

	p.publish(ctx, job, model.JobStatusRunning, pubsub.StepAggregating, "")
	analysis, err := p.analyzer.Aggregate(run)
	if err != nil {
		return nil, run, err
	}
	return analysis, run, nil
}

// fail records a job that produced no usable analysis.
func (p *Processor) fail(ctx context.Context, d *queue.Delivery, job *model.AnalysisJob, token string, report model.AdapterReport, elapsed time.Duration, cause error, log *zap.Logger) error {
	log.Warn("analysis failed", zap.Error(cause), zap.Strings("failed_adapters", report.Failed()))

	if err := p.jobs.MarkFailed(ctx, job.ID, token, report, elapsed, cause.Error()); err != nil {
		if errors.Is(err, repository.ErrClaimLost) {
			return p.ack(ctx, d)
		}
		perr := &PersistenceError{Op: "mark failed", Err: err}
		log.Error("failed to record job failure", zap.Error(perr))
		_ = p.ack(ctx, d)
		return perr
	}

	p.metrics.RecordJob(model.JobStatusFailed, elapsed)
	p.publish(ctx, job, model.JobStatusFailed, pubsub.StepDone, cause.Error())
	return p.ack(ctx, d)
}

func (p *Processor) ack(ctx context.Context, d *queue.Delivery) error {
	if err := p.queue.Ack(ctx, d); err != nil {
		return fmt.Errorf("failed to ack job %d: %w", d.JobID, err)
	}
	return nil
}

// retry puts the message back for a later attempt after a transient error
// that happened before the job was claimed.
func (p *Processor) retry(ctx context.Context, d *queue.Delivery, cause error) error {
	if err := p.queue.Retry(ctx, d, p.retryDelay); err != nil {
		return fmt.Errorf("%w (retry failed: %v)", cause, err)
	}
	return cause
}

func (p *Processor) publish(ctx context.Context, job *model.AnalysisJob, status, step, errMsg string) {
	if p.publisher == nil {
		return
	}
	err := p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
		UserID:  job.UserID,
		EntryID: job.EntryID,
		JobID:   job.ID,
		Status:  status,
		Step:    step,
		Error:   errMsg,
	})
	if err != nil {
		p.logger.Debug("failed to publish progress", zap.Int64("job_id", job.ID), zap.Error(err))
	}
}

func (p *Processor) archive(ctx context.Context, ann *model.Annotation, log *zap.Logger) {
	if p.archiver == nil {
		return
	}
	key, err := p.archiver.ArchiveAnnotation(ctx, ann)
	if err != nil {
		log.Warn("failed to archive annotation", zap.Error(err))
		return
	}
	log.Debug("annotation archived", zap.String("object_key", key))
}

func buildReport(run *nlp.RunResult) model.AdapterReport {
	report := model.AdapterReport{}
	if run == nil {
		return report
	}
	for _, o := range run.Outcomes {
		entry := model.AdapterOutcome{
			Adapter:   o.Adapter,
			Kind:      string(o.Kind),
			OK:        o.OK,
			Attempts:  o.Attempts,
			LatencyMS: o.Latency.Milliseconds(),
		}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		}
		report = append(report, entry)
	}
	return report
}

func toAnnotation(job *model.AnalysisJob, a *nlp.Analysis) *model.Annotation {
	ann := &model.Annotation{
		JobID:            job.ID,
		EntryID:          job.EntryID,
		UserID:           job.UserID,
		SentimentScore:   a.SentimentScore,
		SentimentLabel:   a.SentimentLabel,
		Emotions:         make(model.EmotionList, 0, len(a.Emotions)),
		Topics:           make(model.TopicList, 0, len(a.Topics)),
		Confidence:       a.Confidence,
		LowConfidence:    a.LowConfidence,
		Truncated:        a.Truncated,
		SentimentMissing: a.SentimentMissing,
		EmotionsMissing:  a.EmotionsMissing,
		TopicsMissing:    a.TopicsMissing,
		MissingAdapters:  model.StringArray(a.MissingAdapters),
	}
	for _, e := range a.Emotions {
		ann.Emotions = append(ann.Emotions, model.EmotionScore{Label: e.Label, Confidence: e.Confidence})
	}
	for _, t := range a.Topics {
		ann.Topics = append(ann.Topics, model.TopicScore{Label: t.Label, Relevance: t.Relevance})
	}
	return ann
}
