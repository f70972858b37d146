package service

import (
	"context"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/repository"
)

type MoodService struct {
	moodRepo *repository.MoodRepository
	userRepo *repository.UserRepository
}

func NewMoodService(moodRepo *repository.MoodRepository, userRepo *repository.UserRepository) *MoodService {
	return &MoodService{moodRepo: moodRepo, userRepo: userRepo}
}

func (s *MoodService) Create(ctx context.Context, userID int64, req *dto.CreateMoodRequest) (*dto.MoodItem, error) {
	if _, err := s.userRepo.EnsureExists(ctx, userID); err != nil {
		return nil, err
	}

	mood := &model.MoodEntry{
		UserID:             userID,
		MoodScore:          req.MoodScore,
		MoodLabel:          req.MoodLabel,
		Notes:              req.Notes,
		Activities:         req.Activities,
		SleepHours:         req.SleepHours,
		ExerciseMinutes:    req.ExerciseMinutes,
		SocialInteractions: req.SocialInteractions,
	}
	if err := s.moodRepo.Create(ctx, mood); err != nil {
		return nil, err
	}
	return toMoodItem(mood), nil
}

func (s *MoodService) List(ctx context.Context, userID int64, page, pageSize int) ([]*dto.MoodItem, int64, error) {
	moods, total, err := s.moodRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.MoodItem, len(moods))
	for i, m := range moods {
		items[i] = toMoodItem(m)
	}
	return items, total, nil
}
