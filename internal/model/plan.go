package model

import (
	"time"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusAbandoned = "abandoned"
)

type Task struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"not null;index" json:"user_id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Priority    string     `gorm:"size:20;default:medium" json:"priority"`
	Status      string     `gorm:"size:20;default:pending;index" json:"status"`
	DueDate     *time.Time `gorm:"index" json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

func IsTaskStatus(status string) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Goal tracks progress toward a longer term target, 0-100.
type Goal struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"not null;index" json:"user_id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Category    string     `gorm:"size:50" json:"category,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Progress    int        `gorm:"not null;default:0" json:"progress"`
	Status      string     `gorm:"size:20;default:active;index" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Goal) TableName() string {
	return "goals"
}
