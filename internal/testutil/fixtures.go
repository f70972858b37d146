package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/123sania456789/MindTrackAI/internal/model"
)

var seq atomic.Int64

func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	user := &model.User{
		Username: fmt.Sprintf("testuser_%d", seq.Add(1)),
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

func TestEntry(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.JournalEntry)) *model.JournalEntry {
	t.Helper()

	entry := &model.JournalEntry{
		UserID:  userID,
		Title:   fmt.Sprintf("Entry %d", seq.Add(1)),
		Content: "I feel great and hopeful today",
		Version: 1,
	}

	for _, opt := range opts {
		opt(entry)
	}

	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("Failed to create test entry: %v", err)
	}

	return entry
}

func WithContent(content string) func(*model.JournalEntry) {
	return func(e *model.JournalEntry) {
		e.Content = content
	}
}

func WithMoodScore(score int) func(*model.JournalEntry) {
	return func(e *model.JournalEntry) {
		e.MoodScore = &score
	}
}

// TestJob inserts a job in the given status. Running jobs get a claim token
// and a start time of startedAgo in the past.
func TestJob(t *testing.T, db *gorm.DB, entry *model.JournalEntry, status string, opts ...func(*model.AnalysisJob)) *model.AnalysisJob {
	t.Helper()

	job := &model.AnalysisJob{
		EntryID: entry.ID,
		UserID:  entry.UserID,
		Text:    entry.Content,
		Status:  status,
	}
	if !model.IsTerminalStatus(status) {
		entryID := entry.ID
		job.ActiveEntryID = &entryID
	} else {
		now := time.Now()
		job.CompletedAt = &now
	}
	if status == model.JobStatusRunning {
		now := time.Now()
		job.StartedAt = &now
		job.ClaimToken = fmt.Sprintf("token-%d", seq.Add(1))
		job.Attempts = 1
	}

	for _, opt := range opts {
		opt(job)
	}

	if err := db.Create(job).Error; err != nil {
		t.Fatalf("Failed to create test job: %v", err)
	}

	return job
}

func WithStartedAgo(d time.Duration) func(*model.AnalysisJob) {
	return func(j *model.AnalysisJob) {
		started := time.Now().Add(-d)
		j.StartedAt = &started
	}
}

func WithCreatedAgo(d time.Duration) func(*model.AnalysisJob) {
	return func(j *model.AnalysisJob) {
		j.CreatedAt = time.Now().Add(-d)
	}
}

func WithCompletedAgo(d time.Duration) func(*model.AnalysisJob) {
	return func(j *model.AnalysisJob) {
		completed := time.Now().Add(-d)
		j.CompletedAt = &completed
	}
}

func TestAnnotation(t *testing.T, db *gorm.DB, job *model.AnalysisJob, opts ...func(*model.Annotation)) *model.Annotation {
	t.Helper()

	ann := &model.Annotation{
		JobID:          job.ID,
		EntryID:        job.EntryID,
		UserID:         job.UserID,
		SentimentScore: 0.81,
		SentimentLabel: model.SentimentPositive,
		Emotions:       model.EmotionList{{Label: "hope", Confidence: 0.6}, {Label: "joy", Confidence: 0.6}},
		Topics:         model.TopicList{{Label: "great", Relevance: 1}, {Label: "hopeful", Relevance: 1}},
		Confidence:     0.72,
	}

	for _, opt := range opts {
		opt(ann)
	}

	if err := db.Create(ann).Error; err != nil {
		t.Fatalf("Failed to create test annotation: %v", err)
	}

	return ann
}

func WithCreatedAt(at time.Time) func(*model.Annotation) {
	return func(a *model.Annotation) {
		a.CreatedAt = at
	}
}

func WithSentiment(score float64, label string) func(*model.Annotation) {
	return func(a *model.Annotation) {
		a.SentimentScore = score
		a.SentimentLabel = label
	}
}

func TestMood(t *testing.T, db *gorm.DB, userID int64, score int, opts ...func(*model.MoodEntry)) *model.MoodEntry {
	t.Helper()

	mood := &model.MoodEntry{
		UserID:    userID,
		MoodScore: score,
		MoodLabel: "okay",
	}

	for _, opt := range opts {
		opt(mood)
	}

	if err := db.Create(mood).Error; err != nil {
		t.Fatalf("Failed to create test mood: %v", err)
	}

	return mood
}

func TestTask(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Task)) *model.Task {
	t.Helper()

	task := &model.Task{
		UserID:   userID,
		Title:    fmt.Sprintf("Task %d", seq.Add(1)),
		Priority: model.PriorityMedium,
		Status:   model.TaskStatusPending,
	}
	for _, opt := range opts {
		opt(task)
	}

	if err := db.Create(task).Error; err != nil {
		t.Fatalf("Failed to create test task: %v", err)
	}
	return task
}

func WithDueIn(d time.Duration) func(*model.Task) {
	return func(task *model.Task) {
		due := time.Now().Add(d)
		task.DueDate = &due
	}
}

func TestGoal(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Goal)) *model.Goal {
	t.Helper()

	goal := &model.Goal{
		UserID: userID,
		Title:  fmt.Sprintf("Goal %d", seq.Add(1)),
		Status: model.GoalStatusActive,
	}
	for _, opt := range opts {
		opt(goal)
	}

	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("Failed to create test goal: %v", err)
	}
	return goal
}
