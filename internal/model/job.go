package model

import (
	"time"
)

const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// AnalysisJob tracks one analysis of one journal entry.
// ActiveEntryID equals EntryID while the job is queued or running and is NULL
// afterwards; its unique index allows one non-terminal job per entry.
// QueuedAt is set when a job is pushed again; until then the queue wait is
// measured from CreatedAt.
type AnalysisJob struct {
	ID             int64         `gorm:"primaryKey" json:"id"`
	EntryID        int64         `gorm:"not null;index" json:"entry_id"`
	UserID         int64         `gorm:"not null;index" json:"user_id"`
	ActiveEntryID  *int64        `gorm:"uniqueIndex" json:"-"`
	Text           string        `gorm:"type:text;not null" json:"-"`
	Status         string        `gorm:"size:20;default:queued;index" json:"status"`
	ClaimToken     string        `gorm:"size:36" json:"-"`
	Attempts       int           `gorm:"not null;default:0" json:"attempts"`
	Redeliveries   int           `gorm:"not null;default:0" json:"redeliveries"`
	AdapterReport  AdapterReport `gorm:"type:json" json:"adapter_report,omitempty"`
	ErrorMessage   string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time     `gorm:"index" json:"created_at"`
	QueuedAt       *time.Time    `json:"-"`
	StartedAt      *time.Time    `gorm:"index" json:"started_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	ElapsedSeconds float64       `json:"elapsed_seconds,omitempty"`
}

func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}

func IsTerminalStatus(status string) bool {
	switch status {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

func (j *AnalysisJob) IsTerminal() bool {
	return IsTerminalStatus(j.Status)
}
