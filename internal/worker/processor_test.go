package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/nlp"
	"github.com/123sania456789/MindTrackAI/internal/pkg/metrics"
	"github.com/123sania456789/MindTrackAI/internal/pkg/pubsub"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
	"github.com/123sania456789/MindTrackAI/internal/testutil"
)

func emotionLabels(list model.EmotionList) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Label)
	}
	return out
}

func TestProcessor_HopefulEntry(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()
	m, err := metrics.NewPipelineMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	archiver := &fakeArchiver{}
	proc := env.processor(t, defaultAnalyzer(t), WithMetrics(m), WithArchiver(archiver))

	job := env.enqueue(t, "I feel great and hopeful today")
	require.NoError(t, proc.Process(ctx, env.pop(t)))

	got := env.reload(t, job.ID)
	assert.Equal(t, model.JobStatusSucceeded, got.Status)
	assert.Nil(t, got.ActiveEntryID)
	assert.Equal(t, 1, got.Attempts)
	assert.NotNil(t, got.CompletedAt)
	require.Len(t, got.AdapterReport, 3)
	assert.Empty(t, got.AdapterReport.Failed())

	anns := env.annotations(t, job.ID)
	require.Len(t, anns, 1)
	ann := anns[0]
	assert.Equal(t, job.EntryID, ann.EntryID)
	assert.Equal(t, job.UserID, ann.UserID)
	assert.Greater(t, ann.SentimentScore, 0.0)
	assert.Equal(t, model.SentimentPositive, ann.SentimentLabel)
	assert.Subset(t, emotionLabels(ann.Emotions), []string{"joy", "hope"})

	topics := make([]string, 0, len(ann.Topics))
	for _, tp := range ann.Topics {
		topics = append(topics, tp.Label)
	}
	assert.Subset(t, topics, []string{"great", "hopeful"})
	assert.Greater(t, ann.Confidence, 0.4)
	assert.False(t, ann.LowConfidence)

	pending, err := env.q.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	assert.Equal(t, []string{model.JobStatusRunning, model.JobStatusRunning, model.JobStatusRunning, model.JobStatusRunning, model.JobStatusSucceeded}, env.pub.statuses())
	assert.Equal(t, []string{
		pubsub.StepNormalizing, pubsub.StepAnalyzing, pubsub.StepAggregating, pubsub.StepSaving, pubsub.StepDone,
	}, env.pub.steps())
	assert.Len(t, archiver.keys, 1)
	assert.Equal(t, float64(1), promtest.ToFloat64(m.JobsTotal.WithLabelValues(model.JobStatusSucceeded)))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.AnnotationsSaved))
	assert.Equal(t, float64(0), promtest.ToFloat64(m.ActiveJobsGauge))
}

func TestProcessor_TopicAdapterTimeout(t *testing.T) {
	env := setupPipeline(t)
	h := modelHandle(t)
	spec := nlp.Spec{LatencyBound: time.Second}
	analyzer := newAnalyzer(t, []nlp.Adapter{
		nlp.NewSentimentAdapter("lexicon-sentiment", spec, h),
		nlp.NewEmotionAdapter("lexicon-emotion", spec, h),
		&blockingAdapter{name: "slow-topic", kind: nlp.KindTopic, bound: 20 * time.Millisecond},
	})
	proc := env.processor(t, analyzer)

	job := env.enqueue(t, "I feel great and hopeful today")
	require.NoError(t, proc.Process(context.Background(), env.pop(t)))

	got := env.reload(t, job.ID)
	assert.Equal(t, model.JobStatusSucceeded, got.Status)
	assert.Equal(t, []string{"slow-topic"}, got.AdapterReport.Failed())

	for _, o := range got.AdapterReport {
		if o.Adapter == "slow-topic" {
			assert.Equal(t, 2, o.Attempts)
			assert.Contains(t, o.Error, "timed out")
		}
	}

	anns := env.annotations(t, job.ID)
	require.Len(t, anns, 1)
	assert.True(t, anns[0].TopicsMissing)
	assert.False(t, anns[0].SentimentMissing)
	assert.Empty(t, anns[0].Topics)
	assert.Equal(t, model.StringArray{"slow-topic"}, anns[0].MissingAdapters)
}

func TestProcessor_AllAdaptersFail(t *testing.T) {
	env := setupPipeline(t)
	analyzer := newAnalyzer(t, []nlp.Adapter{
		&brokenAdapter{name: "remote-sentiment", kind: nlp.KindSentiment},
		&brokenAdapter{name: "remote-emotion", kind: nlp.KindEmotion},
		&brokenAdapter{name: "remote-topic", kind: nlp.KindTopic},
	})
	proc := env.processor(t, analyzer)

	job := env.enqueue(t, "A long day")
	require.NoError(t, proc.Process(context.Background(), env.pop(t)))

	got := env.reload(t, job.ID)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Nil(t, got.ActiveEntryID)
	assert.Contains(t, got.ErrorMessage, "analysis unavailable")
	assert.Len(t, got.AdapterReport.Failed(), 3)
	assert.Empty(t, env.annotations(t, job.ID))
	assert.Equal(t, model.JobStatusFailed, env.pub.statuses()[len(env.pub.statuses())-1])

	pending, err := env.q.Pending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestProcessor_BlankTextFails(t *testing.T) {
	env := setupPipeline(t)
	proc := env.processor(t, defaultAnalyzer(t))

	job := env.enqueue(t, "<p> </p>")
	require.NoError(t, proc.Process(context.Background(), env.pop(t)))

	got := env.reload(t, job.ID)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "invalid input")
	assert.Empty(t, got.AdapterReport)
}

func TestProcessor_CancelledBeforeClaim(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()
	proc := env.processor(t, defaultAnalyzer(t))

	job := env.enqueue(t, "I feel great and hopeful today")
	ok, err := env.jobs.Cancel(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, proc.Process(ctx, env.pop(t)))

	got := env.reload(t, job.ID)
	assert.Equal(t, model.JobStatusCancelled, got.Status)
	assert.Zero(t, got.Attempts)
	assert.Empty(t, env.annotations(t, job.ID))
	assert.Empty(t, env.pub.statuses())
}

func TestProcessor_CancelledWhileRunning(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()

	var jobID int64
	store := &hookedStore{
		JobRepository: env.jobs,
		beforeComplete: func() {
			ok, err := env.jobs.Cancel(ctx, jobID)
			require.NoError(t, err)
			require.True(t, ok)
		},
	}
	proc := NewProcessor(store, env.q, defaultAnalyzer(t), env.pub, zaptest.NewLogger(t))

	job := env.enqueue(t, "I feel great and hopeful today")
	jobID = job.ID
	require.NoError(t, proc.Process(ctx, env.pop(t)))

	got := env.reload(t, job.ID)
	assert.Equal(t, model.JobStatusCancelled, got.Status)
	assert.Empty(t, env.annotations(t, job.ID))
}

func TestProcessor_PersistenceFailure(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()
	store := &hookedStore{JobRepository: env.jobs, completeErr: errDiskFull}
	proc := NewProcessor(store, env.q, defaultAnalyzer(t), env.pub, zaptest.NewLogger(t))

	job := env.enqueue(t, "I feel great and hopeful today")
	err := proc.Process(ctx, env.pop(t))

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "complete", perr.Op)
	assert.ErrorIs(t, err, errDiskFull)

	// left for the recovery sweep
	got := env.reload(t, job.ID)
	assert.Equal(t, model.JobStatusRunning, got.Status)
	assert.NotEmpty(t, got.ClaimToken)

	pending, err := env.q.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestProcessor_ArchiveFailureIgnored(t *testing.T) {
	env := setupPipeline(t)
	proc := env.processor(t, defaultAnalyzer(t), WithArchiver(&fakeArchiver{err: errors.New("bucket gone")}))

	job := env.enqueue(t, "I feel great and hopeful today")
	require.NoError(t, proc.Process(context.Background(), env.pop(t)))

	assert.Equal(t, model.JobStatusSucceeded, env.reload(t, job.ID).Status)
	assert.Len(t, env.annotations(t, job.ID), 1)
}

func TestProcessor_UnknownJobDropped(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()
	proc := env.processor(t, defaultAnalyzer(t))

	require.NoError(t, env.q.Push(ctx, &queue.JobMessage{JobID: 4242, EntryID: 1, UserID: 1}))
	require.NoError(t, proc.Process(ctx, env.pop(t)))

	pending, err := env.q.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	length, err := env.q.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestProcessor_ShutdownLeavesJobRunning(t *testing.T) {
	env := setupPipeline(t)
	proc := env.processor(t, defaultAnalyzer(t))

	job := env.enqueue(t, "I feel great and hopeful today")
	d := env.pop(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := proc.Process(ctx, d)
	// the cancelled context may already fail the first database read
	assert.Error(t, err)

	got := env.reload(t, job.ID)
	assert.Contains(t, []string{model.JobStatusQueued, model.JobStatusRunning}, got.Status)
	assert.Empty(t, env.annotations(t, job.ID))
}

func TestBuildReport(t *testing.T) {
	assert.Equal(t, model.AdapterReport{}, buildReport(nil))

	run := &nlp.RunResult{Outcomes: []nlp.Outcome{
		{Adapter: "lexicon-sentiment", Kind: nlp.KindSentiment, OK: true, Attempts: 1, Latency: 3 * time.Millisecond},
		{Adapter: "keyword-topic", Kind: nlp.KindTopic, Attempts: 4, Err: nlp.ErrAdapterTimeout},
	}}
	report := buildReport(run)
	require.Len(t, report, 2)
	assert.Equal(t, model.AdapterOutcome{
		Adapter: "lexicon-sentiment", Kind: "sentiment", OK: true, Attempts: 1, LatencyMS: 3,
	}, report[0])
	assert.Equal(t, "adapter timed out", report[1].Error)
	assert.Equal(t, []string{"keyword-topic"}, report.Failed())
}

func TestToAnnotation(t *testing.T) {
	job := &model.AnalysisJob{ID: 7, EntryID: 3, UserID: 2}
	ann := toAnnotation(job, &nlp.Analysis{
		SentimentScore: -0.4,
		SentimentLabel: model.SentimentNegative,
		Emotions:       []nlp.Emotion{{Label: "sadness", Confidence: 0.8}},
		TopicsMissing:  true,
	})

	assert.Equal(t, int64(7), ann.JobID)
	assert.Equal(t, int64(3), ann.EntryID)
	assert.Equal(t, model.EmotionList{{Label: "sadness", Confidence: 0.8}}, ann.Emotions)
	assert.NotNil(t, ann.Topics)
	assert.Empty(t, ann.Topics)
	assert.True(t, ann.TopicsMissing)
}

func TestProcessor_RetriesTransientLoadError(t *testing.T) {
	env := setupPipeline(t)
	ctx := context.Background()
	proc := env.processor(t, defaultAnalyzer(t))

	env.enqueue(t, "I feel great and hopeful today")
	d := env.pop(t)
	testutil.CleanupTestDB(t, env.db)

	err := proc.Process(ctx, d)
	require.Error(t, err)

	delayed, err := env.q.Delayed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), delayed)
}
