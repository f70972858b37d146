package model

import (
	"time"
)

// JournalEntry is immutable once written. An edit inserts a new version with
// ParentID pointing at the previous row and marks the previous row superseded.
type JournalEntry struct {
	ID         int64       `gorm:"primaryKey" json:"id"`
	UserID     int64       `gorm:"not null;index" json:"user_id"`
	Title      string      `gorm:"size:200" json:"title"`
	Content    string      `gorm:"type:text;not null" json:"content"`
	MoodScore  *int        `json:"mood_score,omitempty"` // 1-10
	Tags       StringArray `gorm:"type:json" json:"tags,omitempty"`
	Version    int         `gorm:"not null;default:1" json:"version"`
	ParentID   *int64      `gorm:"index" json:"parent_id,omitempty"`
	Superseded bool        `gorm:"not null;default:false;index" json:"superseded"`
	Deleted    bool        `gorm:"not null;default:false;index" json:"-"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}
