package dto

import "github.com/123sania456789/MindTrackAI/internal/model"

// EnqueueResponse is returned when an analysis was queued. Duplicate is set
// when the entry already had an active job and JobID refers to it.
type EnqueueResponse struct {
	JobID     int64 `json:"job_id"`
	EntryID   int64 `json:"entry_id"`
	Duplicate bool  `json:"duplicate,omitempty"`
}

type JobStatusResponse struct {
	JobID          int64               `json:"job_id"`
	EntryID        int64               `json:"entry_id"`
	Status         string              `json:"status"`
	Attempts       int                 `json:"attempts"`
	Redeliveries   int                 `json:"redeliveries"`
	ErrorMessage   string              `json:"error_message,omitempty"`
	FailedAdapters []string            `json:"failed_adapters,omitempty"`
	AdapterReport  model.AdapterReport `json:"adapter_report,omitempty"`
	Annotation     *AnnotationView     `json:"annotation,omitempty"`
	CreatedAt      string              `json:"created_at"`
	StartedAt      string              `json:"started_at,omitempty"`
	CompletedAt    string              `json:"completed_at,omitempty"`
	ElapsedSeconds float64             `json:"elapsed_seconds,omitempty"`
}

type AnnotationView struct {
	JobID            int64             `json:"job_id"`
	SentimentScore   float64           `json:"sentiment_score"`
	SentimentLabel   string            `json:"sentiment_label"`
	Emotions         model.EmotionList `json:"emotions"`
	Topics           model.TopicList   `json:"topics"`
	Confidence       float64           `json:"confidence"`
	LowConfidence    bool              `json:"low_confidence"`
	Truncated        bool              `json:"truncated"`
	SentimentMissing bool              `json:"sentiment_missing,omitempty"`
	EmotionsMissing  bool              `json:"emotions_missing,omitempty"`
	TopicsMissing    bool              `json:"topics_missing,omitempty"`
	MissingAdapters  []string          `json:"missing_adapters,omitempty"`
	CreatedAt        string            `json:"created_at"`
}

type AnalyzeTextRequest struct {
	Text string `json:"text" binding:"required,max=20000"`
}

// TextAnalysis is the result of analyzing text outside the job queue.
// Nothing is stored.
type TextAnalysis struct {
	SentimentScore   float64           `json:"sentiment_score"`
	SentimentLabel   string            `json:"sentiment_label"`
	Emotions         model.EmotionList `json:"emotions"`
	Topics           model.TopicList   `json:"topics"`
	Confidence       float64           `json:"confidence"`
	LowConfidence    bool              `json:"low_confidence"`
	Truncated        bool              `json:"truncated"`
	SentimentMissing bool              `json:"sentiment_missing,omitempty"`
	EmotionsMissing  bool              `json:"emotions_missing,omitempty"`
	TopicsMissing    bool              `json:"topics_missing,omitempty"`
	MissingAdapters  []string          `json:"missing_adapters,omitempty"`
	ElapsedMS        int64             `json:"elapsed_ms"`
}
