package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/repository"
)

// JournalService manages journal entries. Entries are never edited in
// place: an update stores a new version and analyzes that version.
type JournalService struct {
	entryRepo *repository.EntryRepository
	userRepo  *repository.UserRepository
	analysis  *AnalysisService
	logger    *zap.Logger
}

func NewJournalService(
	entryRepo *repository.EntryRepository,
	userRepo *repository.UserRepository,
	analysis *AnalysisService,
	logger *zap.Logger,
) *JournalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalService{
		entryRepo: entryRepo,
		userRepo:  userRepo,
		analysis:  analysis,
		logger:    logger,
	}
}

// Create stores an entry and queues its analysis. The entry is kept even
// when queueing fails; JobID is then zero and the client can re-analyze.
func (s *JournalService) Create(ctx context.Context, userID int64, req *dto.CreateEntryRequest) (*dto.EntryResponse, error) {
	if err := s.analysis.ValidateText(req.Content); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.EnsureExists(ctx, userID); err != nil {
		return nil, err
	}

	entry := &model.JournalEntry{
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		MoodScore: req.MoodScore,
		Tags:      req.Tags,
	}
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return &dto.EntryResponse{
		Entry: toEntryDetail(entry),
		JobID: s.enqueue(ctx, entry),
	}, nil
}

func (s *JournalService) enqueue(ctx context.Context, entry *model.JournalEntry) int64 {
	jobID, err := s.analysis.Enqueue(ctx, EnqueueRequest{
		EntryID: entry.ID,
		UserID:  entry.UserID,
		Text:    entry.Content,
	})
	if err != nil {
		var dup *DuplicateActiveJobError
		if errors.As(err, &dup) {
			return dup.JobID
		}
		s.logger.Warn("failed to queue entry analysis", zap.Int64("entry_id", entry.ID), zap.Error(err))
		return 0
	}
	return jobID
}

func (s *JournalService) getOwned(ctx context.Context, userID, entryID int64) (*model.JournalEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.UserID != userID {
		return nil, ErrEntryPermission
	}
	return entry, nil
}

// Get returns an entry with its latest analysis, if any.
func (s *JournalService) Get(ctx context.Context, userID, entryID int64) (*dto.EntryDetail, error) {
	entry, err := s.getOwned(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	detail := toEntryDetail(entry)
	if detail.Analysis, err = s.analysis.LatestAnnotation(ctx, entry.ID); err != nil {
		return nil, err
	}
	if detail.JobStatus, err = s.analysis.LatestJobStatus(ctx, entry.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *JournalService) List(ctx context.Context, userID int64, page, pageSize int) ([]*dto.EntryListItem, int64, error) {
	entries, total, err := s.entryRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.EntryListItem, len(entries))
	for i, e := range entries {
		items[i] = toEntryListItem(e)
	}
	return items, total, nil
}

// Update stores req as a new version of the entry, cancels the analysis of
// the old version and queues one for the new version.
func (s *JournalService) Update(ctx context.Context, userID, entryID int64, req *dto.UpdateEntryRequest) (*dto.EntryResponse, error) {
	prev, err := s.getOwned(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if prev.Superseded {
		return nil, ErrEntryEdited
	}

	next := &model.JournalEntry{
		Title:     prev.Title,
		Content:   prev.Content,
		MoodScore: prev.MoodScore,
		Tags:      prev.Tags,
	}
	if req.Title != nil {
		next.Title = *req.Title
	}
	if req.Content != nil {
		if err := s.analysis.ValidateText(*req.Content); err != nil {
			return nil, err
		}
		next.Content = *req.Content
	}
	if req.MoodScore != nil {
		next.MoodScore = req.MoodScore
	}
	if req.Tags != nil {
		next.Tags = req.Tags
	}

	if err := s.entryRepo.CreateVersion(ctx, prev, next); err != nil {
		if errors.Is(err, repository.ErrEntrySuperseded) {
			return nil, ErrEntryEdited
		}
		return nil, err
	}

	if err := s.analysis.CancelEntry(ctx, prev.ID); err != nil {
		s.logger.Warn("failed to cancel analysis of old version", zap.Int64("entry_id", prev.ID), zap.Error(err))
	}

	return &dto.EntryResponse{
		Entry: toEntryDetail(next),
		JobID: s.enqueue(ctx, next),
	}, nil
}

// Delete hides the entry and cancels its active analysis.
func (s *JournalService) Delete(ctx context.Context, userID, entryID int64) error {
	entry, err := s.getOwned(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if err := s.analysis.CancelEntry(ctx, entry.ID); err != nil {
		return err
	}
	return s.entryRepo.MarkDeleted(ctx, entry.ID)
}

// Versions lists the version chain ending at entryID, oldest first.
func (s *JournalService) Versions(ctx context.Context, userID, entryID int64) ([]*dto.EntryListItem, error) {
	if _, err := s.getOwned(ctx, userID, entryID); err != nil {
		return nil, err
	}
	chain, err := s.entryRepo.Versions(ctx, entryID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.EntryListItem, len(chain))
	for i, e := range chain {
		items[i] = toEntryListItem(e)
	}
	return items, nil
}

func toEntryListItem(e *model.JournalEntry) *dto.EntryListItem {
	return &dto.EntryListItem{
		ID:        e.ID,
		Title:     e.Title,
		MoodScore: e.MoodScore,
		Tags:      e.Tags,
		Version:   e.Version,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}
