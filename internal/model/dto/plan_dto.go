package dto

// Dates accept YYYY-MM-DD or RFC 3339.
type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Priority    string `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
	DueDate     string `json:"due_date,omitempty"`
}

type TaskItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date,omitempty"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type CreateGoalRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Category    string `json:"category,omitempty" binding:"omitempty,max=50"`
	TargetDate  string `json:"target_date,omitempty"`
}

type UpdateGoalProgressRequest struct {
	Progress *int `json:"progress" binding:"required,min=0,max=100"`
}

type GoalItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	TargetDate  string `json:"target_date,omitempty"`
	Progress    int    `json:"progress"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
