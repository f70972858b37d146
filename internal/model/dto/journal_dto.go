package dto

type CreateEntryRequest struct {
	Title     string   `json:"title" binding:"max=200"`
	Content   string   `json:"content" binding:"required,max=20000"`
	MoodScore *int     `json:"mood_score,omitempty" binding:"omitempty,min=1,max=10"`
	Tags      []string `json:"tags,omitempty" binding:"omitempty,max=10,dive,max=30"`
}

// UpdateEntryRequest creates a new version; omitted fields are carried over.
type UpdateEntryRequest struct {
	Title     *string  `json:"title,omitempty" binding:"omitempty,max=200"`
	Content   *string  `json:"content,omitempty" binding:"omitempty,max=20000"`
	MoodScore *int     `json:"mood_score,omitempty" binding:"omitempty,min=1,max=10"`
	Tags      []string `json:"tags,omitempty" binding:"omitempty,max=10,dive,max=30"`
}

type EntryResponse struct {
	Entry *EntryDetail `json:"entry"`
	JobID int64        `json:"job_id,omitempty"`
}

type EntryListItem struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	MoodScore *int     `json:"mood_score,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Version   int      `json:"version"`
	CreatedAt string   `json:"created_at"`
}

type EntryDetail struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	MoodScore  *int            `json:"mood_score,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Version    int             `json:"version"`
	ParentID   *int64          `json:"parent_id,omitempty"`
	Superseded bool            `json:"superseded"`
	CreatedAt  string          `json:"created_at"`
	Analysis   *AnnotationView `json:"analysis,omitempty"`
	JobStatus  string          `json:"job_status,omitempty"`
}
