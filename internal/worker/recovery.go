package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/pkg/metrics"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
)

const defaultSweepBatch = 100

// StaleJobStore is what the recovery sweep needs from the job table.
type StaleJobStore interface {
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*model.AnalysisJob, error)
	RequeueStale(ctx context.Context, id int64, cutoff time.Time) (bool, error)
	ListStaleQueued(ctx context.Context, cutoff time.Time, limit int) ([]*model.AnalysisJob, error)
	RequeueQueued(ctx context.Context, id int64, cutoff time.Time) (bool, error)
	FailQueued(ctx context.Context, id int64, errMsg string) error
}

// Recoverer hands jobs abandoned by a dead or stuck worker back to the queue.
// It also re-pushes queued jobs whose message never reached a worker.
type Recoverer struct {
	jobs       StaleJobStore
	queue      Queue
	staleAfter time.Duration
	batch      int
	metrics    *metrics.PipelineMetrics
	logger     *zap.Logger
}

func NewRecoverer(jobs StaleJobStore, q Queue, staleAfter time.Duration, m *metrics.PipelineMetrics, logger *zap.Logger) *Recoverer {
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recoverer{
		jobs:       jobs,
		queue:      q,
		staleAfter: staleAfter,
		batch:      defaultSweepBatch,
		metrics:    m,
		logger:     logger,
	}
}

// Sweep requeues running jobs whose claim is older than the staleness
// threshold, and re-pushes queued jobs that waited longer than it. It
// returns how many jobs it handed back. Several sweepers may run at once;
// only the one whose compare-and-swap wins pushes the job.
func (r *Recoverer) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.staleAfter)

	running, err := r.jobs.ListStale(ctx, cutoff, r.batch)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale jobs: %w", err)
	}
	queued, err := r.jobs.ListStaleQueued(ctx, cutoff, r.batch)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale queued jobs: %w", err)
	}

	var (
		requeued int
		errs     []error
	)
	for _, job := range running {
		ok, err := r.jobs.RequeueStale(ctx, job.ID, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("requeue job %d: %w", job.ID, err))
			continue
		}
		if ok && r.repush(ctx, job, "stale running job", &errs) {
			requeued++
		}
	}
	for _, job := range queued {
		ok, err := r.jobs.RequeueQueued(ctx, job.ID, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("requeue job %d: %w", job.ID, err))
			continue
		}
		if ok && r.repush(ctx, job, "lost queued job", &errs) {
			requeued++
		}
	}

	r.metrics.RecordRecovered(requeued)
	if n, err := r.queue.Length(ctx); err == nil {
		r.metrics.SetQueueDepth(n)
	}
	return requeued, errors.Join(errs...)
}

// repush drops any copy of the job left in the processing list and pushes
// it again. A job that cannot be pushed is failed so its entry is released.
func (r *Recoverer) repush(ctx context.Context, job *model.AnalysisJob, kind string, errs *[]error) bool {
	msg := queue.JobMessage{JobID: job.ID, EntryID: job.EntryID, UserID: job.UserID}
	if err := r.queue.Ack(ctx, queue.NewDelivery(msg)); err != nil {
		r.logger.Warn("failed to drop orphaned delivery", zap.Int64("job_id", job.ID), zap.Error(err))
	}
	if err := r.queue.Push(ctx, &msg); err != nil {
		*errs = append(*errs, fmt.Errorf("push job %d: %w", job.ID, err))
		if ferr := r.jobs.FailQueued(ctx, job.ID, "analysis queue unavailable"); ferr != nil {
			r.logger.Error("failed to fail unqueued job", zap.Int64("job_id", job.ID), zap.Error(ferr))
		}
		return false
	}

	r.logger.Info("requeued "+kind,
		zap.Int64("job_id", job.ID),
		zap.Int("redeliveries", job.Redeliveries+1),
		zap.Time("created_at", job.CreatedAt),
		zap.Timep("started_at", job.StartedAt))
	return true
}
