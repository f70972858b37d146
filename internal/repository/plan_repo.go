package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/internal/model"
)

// undated rows sort after dated ones
const (
	taskOrder = "due_date IS NULL, due_date ASC, id ASC"
	goalOrder = "target_date IS NULL, target_date ASC, id ASC"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Status == "" {
		task.Status = model.TaskStatusPending
	}
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByUser pages through a user's tasks, soonest due first. An empty
// status lists every task.
func (r *TaskRepository) ListByUser(ctx context.Context, userID int64, status string, page, pageSize int) ([]*model.Task, int64, error) {
	var tasks []*model.Task
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order(taskOrder).Offset(offset).Limit(pageSize).Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Complete marks a task completed. ok is false when it already was.
func (r *TaskRepository) Complete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status <> ?", id, model.TaskStatusCompleted).
		Updates(map[string]interface{}{
			"status":       model.TaskStatusCompleted,
			"completed_at": time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(ctx context.Context, goal *model.Goal) error {
	if goal.Status == "" {
		goal.Status = model.GoalStatusActive
	}
	return r.db.WithContext(ctx).Create(goal).Error
}

func (r *GoalRepository) GetByID(ctx context.Context, id int64) (*model.Goal, error) {
	var goal model.Goal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&goal).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// ListByUser pages through a user's goals, nearest target first.
func (r *GoalRepository) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*model.Goal, int64, error) {
	var goals []*model.Goal
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Goal{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order(goalOrder).Offset(offset).Limit(pageSize).Find(&goals).Error; err != nil {
		return nil, 0, err
	}
	return goals, total, nil
}

// UpdateProgress sets goal progress; 100 completes it. ok is false for abandoned goals.
func (r *GoalRepository) UpdateProgress(ctx context.Context, id int64, progress int) (bool, error) {
	status := model.GoalStatusActive
	if progress >= 100 {
		status = model.GoalStatusCompleted
	}
	res := r.db.WithContext(ctx).Model(&model.Goal{}).
		Where("id = ? AND status <> ?", id, model.GoalStatusAbandoned).
		Updates(map[string]interface{}{
			"progress":   progress,
			"status":     status,
			"updated_at": time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}
