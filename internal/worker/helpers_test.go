package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/config"
	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/nlp"
	"github.com/123sania456789/MindTrackAI/internal/pkg/pubsub"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
	"github.com/123sania456789/MindTrackAI/internal/repository"
	"github.com/123sania456789/MindTrackAI/internal/testutil"
)

type pipelineEnv struct {
	db   *gorm.DB
	jobs *repository.JobRepository
	q    *queue.Queue
	pub  *fakePublisher
}

func setupPipeline(t *testing.T) *pipelineEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
		testutil.CleanupTestDB(t, db)
	})

	return &pipelineEnv{
		db:   db,
		jobs: repository.NewJobRepository(db),
		q:    queue.NewQueue(client, "test_jobs"),
		pub:  &fakePublisher{},
	}
}

func (e *pipelineEnv) processor(t *testing.T, analyzer *nlp.Analyzer, opts ...ProcessorOption) *Processor {
	t.Helper()
	opts = append([]ProcessorOption{WithRetryDelay(10 * time.Millisecond)}, opts...)
	return NewProcessor(e.jobs, e.q, analyzer, e.pub, zaptest.NewLogger(t), opts...)
}

// enqueue stores an entry with a queued job and pushes its message.
func (e *pipelineEnv) enqueue(t *testing.T, content string) *model.AnalysisJob {
	t.Helper()
	user := testutil.TestUser(t, e.db)
	entry := testutil.TestEntry(t, e.db, user.ID, testutil.WithContent(content))
	job := testutil.TestJob(t, e.db, entry, model.JobStatusQueued)
	require.NoError(t, e.q.Push(context.Background(), &queue.JobMessage{
		JobID: job.ID, EntryID: entry.ID, UserID: user.ID,
	}))
	return job
}

func (e *pipelineEnv) pop(t *testing.T) *queue.Delivery {
	t.Helper()
	d, err := e.q.Pop(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d, "expected a message on the queue")
	return d
}

func (e *pipelineEnv) reload(t *testing.T, id int64) *model.AnalysisJob {
	t.Helper()
	job, err := e.jobs.GetByID(context.Background(), id)
	require.NoError(t, err)
	return job
}

func (e *pipelineEnv) annotations(t *testing.T, jobID int64) []model.Annotation {
	t.Helper()
	var anns []model.Annotation
	require.NoError(t, e.db.Where("job_id = ?", jobID).Find(&anns).Error)
	return anns
}

func runnerConfig() nlp.RunnerConfig {
	return nlp.RunnerConfig{
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		JobTimeout:     2 * time.Second,
	}
}

func modelHandle(t *testing.T) *nlp.ModelHandle {
	t.Helper()
	h := nlp.NewModelHandle()
	require.NoError(t, h.Load())
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func defaultAnalyzer(t *testing.T) *nlp.Analyzer {
	t.Helper()
	adapters, err := nlp.BuildAdapters(config.DefaultModels(), modelHandle(t))
	require.NoError(t, err)
	return newAnalyzer(t, adapters)
}

func newAnalyzer(t *testing.T, adapters []nlp.Adapter) *nlp.Analyzer {
	t.Helper()
	runner := nlp.NewRunner(adapters, runnerConfig(), zaptest.NewLogger(t))
	return nlp.NewAnalyzer(runner, nlp.NewAggregator(nlp.AggregatorConfig{}))
}

// blockingAdapter never answers before its latency bound.
type blockingAdapter struct {
	name  string
	kind  nlp.Kind
	bound time.Duration
}

func (a *blockingAdapter) Name() string   { return a.name }
func (a *blockingAdapter) Kind() nlp.Kind { return a.kind }
func (a *blockingAdapter) Spec() nlp.Spec { return nlp.Spec{LatencyBound: a.bound} }

func (a *blockingAdapter) Analyze(ctx context.Context, _ *nlp.NormalizedText) (*nlp.ModelResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type brokenAdapter struct {
	name string
	kind nlp.Kind
}

func (a *brokenAdapter) Name() string   { return a.name }
func (a *brokenAdapter) Kind() nlp.Kind { return a.kind }
func (a *brokenAdapter) Spec() nlp.Spec { return nlp.Spec{} }

func (a *brokenAdapter) Analyze(context.Context, *nlp.NormalizedText) (*nlp.ModelResult, error) {
	return nil, fmt.Errorf("%w: empty response body", nlp.ErrMalformedOutput)
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []pubsub.ProgressMessage
}

func (p *fakePublisher) PublishProgress(_ context.Context, msg *pubsub.ProgressMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, *msg)
	return nil
}

func (p *fakePublisher) steps() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Step)
	}
	return out
}

func (p *fakePublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Status)
	}
	return out
}

type fakeArchiver struct {
	mu   sync.Mutex
	err  error
	keys []string
}

func (a *fakeArchiver) ArchiveAnnotation(_ context.Context, ann *model.Annotation) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	key := fmt.Sprintf("annotations/%d/%d/%d.json", ann.UserID, ann.EntryID, ann.JobID)
	a.keys = append(a.keys, key)
	return key, nil
}

// hookedStore lets a test interfere right before the success write.
type hookedStore struct {
	*repository.JobRepository
	beforeComplete func()
	completeErr    error
}

func (s *hookedStore) CompleteSucceeded(ctx context.Context, id int64, token string, report model.AdapterReport, elapsed time.Duration, ann *model.Annotation) error {
	if s.beforeComplete != nil {
		s.beforeComplete()
	}
	if s.completeErr != nil {
		return s.completeErr
	}
	return s.JobRepository.CompleteSucceeded(ctx, id, token, report, elapsed, ann)
}

var errDiskFull = errors.New("disk full")
