package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/internal/pkg/metrics"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
)

// popErrorPause keeps a worker from spinning while redis is unreachable.
const popErrorPause = time.Second

// Handler processes one delivery. *Processor is the production handler.
type Handler interface {
	Process(ctx context.Context, d *queue.Delivery) error
}

// Pool runs a fixed number of workers that pop jobs until ctx is cancelled.
type Pool struct {
	queue      Queue
	handler    Handler
	workers    int
	popTimeout time.Duration
	metrics    *metrics.PipelineMetrics
	logger     *zap.Logger
}

func NewPool(q Queue, h Handler, workers int, popTimeout time.Duration, m *metrics.PipelineMetrics, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if popTimeout <= 0 {
		popTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		queue:      q,
		handler:    h,
		workers:    workers,
		popTimeout: popTimeout,
		metrics:    m,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled and every worker has returned. A job
// that is already running when ctx is cancelled is allowed to finish; the
// runner's job timeout bounds how long that takes.
func (p *Pool) Run(ctx context.Context) {
	p.logger.Info("worker pool started", zap.Int("workers", p.workers))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.loop(ctx, workerID)
		}(i)
	}
	wg.Wait()

	p.logger.Info("worker pool stopped")
}

func (p *Pool) loop(ctx context.Context, workerID int) {
	log := p.logger.With(zap.Int("worker", workerID))
	jobCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		default:
		}

		d, err := p.queue.Pop(ctx, p.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("failed to pop job", zap.Error(err))
			p.pause(ctx)
			continue
		}
		if d == nil {
			p.refreshDepth(ctx)
			continue
		}

		if err := p.handler.Process(jobCtx, d); err != nil {
			log.Warn("job processing error", zap.Int64("job_id", d.JobID), zap.Error(err))
		}
	}
}

func (p *Pool) pause(ctx context.Context) {
	t := time.NewTimer(popErrorPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (p *Pool) refreshDepth(ctx context.Context) {
	if p.metrics == nil {
		return
	}
	if n, err := p.queue.Length(ctx); err == nil {
		p.metrics.SetQueueDepth(n)
	}
}
