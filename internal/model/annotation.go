package model

import (
	"time"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Annotation is the aggregated analysis of one journal entry version.
// Rows are never updated; a re-analysis inserts a newer one.
type Annotation struct {
	ID               int64       `gorm:"primaryKey" json:"id"`
	JobID            int64       `gorm:"not null;uniqueIndex" json:"job_id"`
	EntryID          int64       `gorm:"not null;index" json:"entry_id"`
	UserID           int64       `gorm:"not null;index:idx_annotations_user_created,priority:1" json:"user_id"`
	SentimentScore   float64     `json:"sentiment_score"`
	SentimentLabel   string      `gorm:"size:10" json:"sentiment_label"`
	Emotions         EmotionList `gorm:"type:json" json:"emotions"`
	Topics           TopicList   `gorm:"type:json" json:"topics"`
	Confidence       float64     `json:"confidence"`
	LowConfidence    bool        `json:"low_confidence"`
	Truncated        bool        `json:"truncated"`
	SentimentMissing bool        `json:"sentiment_missing"`
	EmotionsMissing  bool        `json:"emotions_missing"`
	TopicsMissing    bool        `json:"topics_missing"`
	MissingAdapters  StringArray `gorm:"type:json" json:"missing_adapters,omitempty"`
	CreatedAt        time.Time   `gorm:"index:idx_annotations_user_created,priority:2" json:"created_at"`
}

func (Annotation) TableName() string {
	return "annotations"
}
