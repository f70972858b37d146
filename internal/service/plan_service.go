package service

import (
	"context"
	"errors"
	"time"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/repository"
)

type TaskService struct {
	taskRepo *repository.TaskRepository
	userRepo *repository.UserRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, userRepo *repository.UserRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, userRepo: userRepo}
}

// Create stores a pending task. A zero dueDate means no due date.
func (s *TaskService) Create(ctx context.Context, userID int64, req *dto.CreateTaskRequest, dueDate time.Time) (*dto.TaskItem, error) {
	if _, err := s.userRepo.EnsureExists(ctx, userID); err != nil {
		return nil, err
	}

	task := &model.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}
	if !dueDate.IsZero() {
		task.DueDate = &dueDate
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	return toTaskItem(task), nil
}

func (s *TaskService) List(ctx context.Context, userID int64, status string, page, pageSize int) ([]*dto.TaskItem, int64, error) {
	tasks, total, err := s.taskRepo.ListByUser(ctx, userID, status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.TaskItem, len(tasks))
	for i, t := range tasks {
		items[i] = toTaskItem(t)
	}
	return items, total, nil
}

func (s *TaskService) Complete(ctx context.Context, userID, taskID int64) (*dto.TaskItem, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrTaskPermission
	}

	ok, err := s.taskRepo.Complete(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTaskCompleted
	}

	if task, err = s.taskRepo.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return toTaskItem(task), nil
}

type GoalService struct {
	goalRepo *repository.GoalRepository
	userRepo *repository.UserRepository
}

func NewGoalService(goalRepo *repository.GoalRepository, userRepo *repository.UserRepository) *GoalService {
	return &GoalService{goalRepo: goalRepo, userRepo: userRepo}
}

// Create stores an active goal at 0 progress. A zero targetDate means no
// target.
func (s *GoalService) Create(ctx context.Context, userID int64, req *dto.CreateGoalRequest, targetDate time.Time) (*dto.GoalItem, error) {
	if _, err := s.userRepo.EnsureExists(ctx, userID); err != nil {
		return nil, err
	}

	goal := &model.Goal{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if !targetDate.IsZero() {
		goal.TargetDate = &targetDate
	}
	if err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, err
	}
	return toGoalItem(goal), nil
}

func (s *GoalService) List(ctx context.Context, userID int64, page, pageSize int) ([]*dto.GoalItem, int64, error) {
	goals, total, err := s.goalRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.GoalItem, len(goals))
	for i, g := range goals {
		items[i] = toGoalItem(g)
	}
	return items, total, nil
}

func (s *GoalService) UpdateProgress(ctx context.Context, userID, goalID int64, progress int) (*dto.GoalItem, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	if goal.UserID != userID {
		return nil, ErrGoalPermission
	}

	ok, err := s.goalRepo.UpdateProgress(ctx, goalID, progress)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGoalAbandoned
	}

	if goal, err = s.goalRepo.GetByID(ctx, goalID); err != nil {
		return nil, err
	}
	return toGoalItem(goal), nil
}
