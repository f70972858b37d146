package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/nlp"
	"github.com/123sania456789/MindTrackAI/internal/pkg/pubsub"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
	"github.com/123sania456789/MindTrackAI/internal/repository"
)

const (
	statusCacheTTL     = 10 * time.Minute
	statusCacheCleanup = 20 * time.Minute
)

// JobQueue is the producer side of the analysis queue.
type JobQueue interface {
	Push(ctx context.Context, msg *queue.JobMessage) error
}

// ProgressPublisher notifies connected clients about job state changes.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error
}

// TextValidator decides whether text has anything a model can analyze.
// Both *nlp.Normalizer and *nlp.Analyzer satisfy it.
type TextValidator interface {
	Normalize(raw string) (*nlp.NormalizedText, error)
}

type EnqueueRequest struct {
	EntryID int64
	UserID  int64
	Text    string
}

type AnalysisService struct {
	jobRepo        *repository.JobRepository
	entryRepo      *repository.EntryRepository
	annotationRepo *repository.AnnotationRepository
	queue          JobQueue
	publisher      ProgressPublisher
	validator      TextValidator
	statusCache    *cache.Cache
	logger         *zap.Logger
}

// cachedStatus keeps the owner next to the response so cached reads still
// enforce ownership.
type cachedStatus struct {
	userID int64
	resp   *dto.JobStatusResponse
}

type AnalysisOption func(*AnalysisService)

// WithTextValidator replaces the default normalizer used to reject text
// before a job is stored.
func WithTextValidator(v TextValidator) AnalysisOption {
	return func(s *AnalysisService) { s.validator = v }
}

func NewAnalysisService(
	jobRepo *repository.JobRepository,
	entryRepo *repository.EntryRepository,
	annotationRepo *repository.AnnotationRepository,
	q JobQueue,
	publisher ProgressPublisher,
	logger *zap.Logger,
	opts ...AnalysisOption,
) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AnalysisService{
		jobRepo:        jobRepo,
		entryRepo:      entryRepo,
		annotationRepo: annotationRepo,
		queue:          q,
		publisher:      publisher,
		validator:      nlp.NewNormalizer(0),
		statusCache:    cache.New(statusCacheTTL, statusCacheCleanup),
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateText returns ErrInvalidInput when text is blank or normalizes to
// no tokens, e.g. markup or punctuation only.
func (s *AnalysisService) ValidateText(text string) error {
	if _, err := s.validator.Normalize(text); err != nil {
		if errors.Is(err, nlp.ErrInvalidInput) {
			return ErrInvalidInput
		}
		return err
	}
	return nil
}

// Enqueue creates a queued job for an entry and pushes it to the workers.
// It is idempotent per entry: while a job is queued or running it returns
// *DuplicateActiveJobError carrying that job's id.
func (s *AnalysisService) Enqueue(ctx context.Context, req EnqueueRequest) (int64, error) {
	if err := s.ValidateText(req.Text); err != nil {
		return 0, err
	}

	job := &model.AnalysisJob{
		EntryID: req.EntryID,
		UserID:  req.UserID,
		Text:    req.Text,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		if errors.Is(err, repository.ErrActiveJobExists) {
			return s.duplicate(ctx, req.EntryID)
		}
		return 0, fmt.Errorf("failed to create analysis job: %w", err)
	}

	msg := &queue.JobMessage{JobID: job.ID, EntryID: job.EntryID, UserID: job.UserID}
	if err := s.queue.Push(ctx, msg); err != nil {
		// release the entry so the client can retry
		if ferr := s.jobRepo.FailQueued(ctx, job.ID, "queue unavailable"); ferr != nil {
			s.logger.Error("failed to release unqueued job", zap.Int64("job_id", job.ID), zap.Error(ferr))
		}
		return 0, fmt.Errorf("failed to push analysis job: %w", err)
	}

	s.logger.Info("analysis job queued",
		zap.Int64("job_id", job.ID),
		zap.Int64("entry_id", job.EntryID),
		zap.Int64("user_id", job.UserID))
	s.publish(ctx, job, model.JobStatusQueued, pubsub.StepQueued, "")

	return job.ID, nil
}

func (s *AnalysisService) duplicate(ctx context.Context, entryID int64) (int64, error) {
	active, err := s.jobRepo.GetActiveByEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// finished between the insert and this read
			return 0, &DuplicateActiveJobError{EntryID: entryID}
		}
		return 0, err
	}
	return active.ID, &DuplicateActiveJobError{EntryID: entryID, JobID: active.ID}
}

// AnalyzeEntry re-analyzes the current version of an entry owned by userID.
func (s *AnalysisService) AnalyzeEntry(ctx context.Context, userID, entryID int64) (int64, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrEntryNotFound
		}
		return 0, err
	}
	if entry.UserID != userID {
		return 0, ErrEntryPermission
	}
	if entry.Superseded {
		return 0, ErrEntryEdited
	}

	return s.Enqueue(ctx, EnqueueRequest{EntryID: entry.ID, UserID: userID, Text: entry.Content})
}

// Status reports a job with its annotation once it succeeded. Terminal
// statuses never change, so they are cached.
func (s *AnalysisService) Status(ctx context.Context, userID, jobID int64) (*dto.JobStatusResponse, error) {
	key := strconv.FormatInt(jobID, 10)
	if v, ok := s.statusCache.Get(key); ok {
		cached := v.(*cachedStatus)
		if cached.userID != userID {
			return nil, ErrJobPermission
		}
		return cached.resp, nil
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrJobPermission
	}

	resp := toJobStatus(job)
	if job.Status == model.JobStatusSucceeded {
		ann, err := s.annotationRepo.GetByJobID(ctx, job.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		resp.Annotation = toAnnotationView(ann)
	}

	if job.IsTerminal() {
		s.statusCache.SetDefault(key, &cachedStatus{userID: job.UserID, resp: resp})
	}
	return resp, nil
}

// Cancel stops a queued or running job. A worker still running it will
// fail its final compare-and-swap and discard the results.
func (s *AnalysisService) Cancel(ctx context.Context, userID, jobID int64) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrJobNotFound
		}
		return err
	}
	if job.UserID != userID {
		return ErrJobPermission
	}

	ok, err := s.jobRepo.Cancel(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrJobFinished
	}

	s.statusCache.Delete(strconv.FormatInt(jobID, 10))
	s.logger.Info("analysis job cancelled", zap.Int64("job_id", jobID))
	s.publish(ctx, job, model.JobStatusCancelled, "", "")
	return nil
}

// CancelEntry cancels whatever job is active for an entry. It is used when
// the entry is deleted or replaced by a new version.
func (s *AnalysisService) CancelEntry(ctx context.Context, entryID int64) error {
	n, err := s.jobRepo.CancelByEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("cancelled active job of entry", zap.Int64("entry_id", entryID))
	}
	return nil
}

// LatestAnnotation returns the newest annotation of an entry, or nil.
func (s *AnalysisService) LatestAnnotation(ctx context.Context, entryID int64) (*dto.AnnotationView, error) {
	ann, err := s.annotationRepo.Latest(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toAnnotationView(ann), nil
}

// LatestJobStatus returns the status of the newest job of an entry, or "".
func (s *AnalysisService) LatestJobStatus(ctx context.Context, entryID int64) (string, error) {
	job, err := s.jobRepo.GetLatestByEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return job.Status, nil
}

func (s *AnalysisService) publish(ctx context.Context, job *model.AnalysisJob, status, step, errMsg string) {
	if s.publisher == nil {
		return
	}
	msg := &pubsub.ProgressMessage{
		UserID:  job.UserID,
		EntryID: job.EntryID,
		JobID:   job.ID,
		Status:  status,
		Step:    step,
		Error:   errMsg,
	}
	if err := s.publisher.PublishProgress(ctx, msg); err != nil {
		s.logger.Warn("failed to publish progress", zap.Int64("job_id", job.ID), zap.Error(err))
	}
}
