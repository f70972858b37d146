package dto

type CreateMoodRequest struct {
	MoodScore          int      `json:"mood_score" binding:"required,min=1,max=10"`
	MoodLabel          string   `json:"mood_label,omitempty" binding:"omitempty,max=50"`
	Notes              string   `json:"notes,omitempty" binding:"omitempty,max=2000"`
	Activities         []string `json:"activities,omitempty" binding:"omitempty,max=20,dive,max=50"`
	SleepHours         *float64 `json:"sleep_hours,omitempty" binding:"omitempty,min=0,max=24"`
	ExerciseMinutes    *int     `json:"exercise_minutes,omitempty" binding:"omitempty,min=0,max=1440"`
	SocialInteractions *int     `json:"social_interactions,omitempty" binding:"omitempty,min=0"`
}

type MoodItem struct {
	ID                 int64    `json:"id"`
	MoodScore          int      `json:"mood_score"`
	MoodLabel          string   `json:"mood_label,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	Activities         []string `json:"activities,omitempty"`
	SleepHours         *float64 `json:"sleep_hours,omitempty"`
	ExerciseMinutes    *int     `json:"exercise_minutes,omitempty"`
	SocialInteractions *int     `json:"social_interactions,omitempty"`
	CreatedAt          string   `json:"created_at"`
}
