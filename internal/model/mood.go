package model

import (
	"time"
)

type MoodEntry struct {
	ID                 int64       `gorm:"primaryKey" json:"id"`
	UserID             int64       `gorm:"not null;index" json:"user_id"`
	MoodScore          int         `gorm:"not null" json:"mood_score"` // 1-10
	MoodLabel          string      `gorm:"size:50" json:"mood_label,omitempty"`
	Notes              string      `gorm:"type:text" json:"notes,omitempty"`
	Activities         StringArray `gorm:"type:json" json:"activities,omitempty"`
	SleepHours         *float64    `json:"sleep_hours,omitempty"`
	ExerciseMinutes    *int        `json:"exercise_minutes,omitempty"`
	SocialInteractions *int        `json:"social_interactions,omitempty"`
	CreatedAt          time.Time   `gorm:"index" json:"created_at"`
}

func (MoodEntry) TableName() string {
	return "mood_entries"
}
