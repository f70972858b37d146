package service

import (
	"time"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
)

func toAnnotationView(a *model.Annotation) *dto.AnnotationView {
	if a == nil {
		return nil
	}
	return &dto.AnnotationView{
		JobID:            a.JobID,
		SentimentScore:   a.SentimentScore,
		SentimentLabel:   a.SentimentLabel,
		Emotions:         a.Emotions,
		Topics:           a.Topics,
		Confidence:       a.Confidence,
		LowConfidence:    a.LowConfidence,
		Truncated:        a.Truncated,
		SentimentMissing: a.SentimentMissing,
		EmotionsMissing:  a.EmotionsMissing,
		TopicsMissing:    a.TopicsMissing,
		MissingAdapters:  a.MissingAdapters,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
	}
}

func toJobStatus(job *model.AnalysisJob) *dto.JobStatusResponse {
	resp := &dto.JobStatusResponse{
		JobID:          job.ID,
		EntryID:        job.EntryID,
		Status:         job.Status,
		Attempts:       job.Attempts,
		Redeliveries:   job.Redeliveries,
		ErrorMessage:   job.ErrorMessage,
		FailedAdapters: job.AdapterReport.Failed(),
		AdapterReport:  job.AdapterReport,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		ElapsedSeconds: job.ElapsedSeconds,
	}
	if job.StartedAt != nil {
		resp.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

func toEntryDetail(e *model.JournalEntry) *dto.EntryDetail {
	return &dto.EntryDetail{
		ID:         e.ID,
		Title:      e.Title,
		Content:    e.Content,
		MoodScore:  e.MoodScore,
		Tags:       e.Tags,
		Version:    e.Version,
		ParentID:   e.ParentID,
		Superseded: e.Superseded,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
}

func toMoodItem(m *model.MoodEntry) *dto.MoodItem {
	return &dto.MoodItem{
		ID:                 m.ID,
		MoodScore:          m.MoodScore,
		MoodLabel:          m.MoodLabel,
		Notes:              m.Notes,
		Activities:         m.Activities,
		SleepHours:         m.SleepHours,
		ExerciseMinutes:    m.ExerciseMinutes,
		SocialInteractions: m.SocialInteractions,
		CreatedAt:          m.CreatedAt.Format(time.RFC3339),
	}
}

func toTaskItem(t *model.Task) *dto.TaskItem {
	item := &dto.TaskItem{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.DueDate != nil {
		item.DueDate = t.DueDate.Format(time.RFC3339)
	}
	if t.CompletedAt != nil {
		item.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	return item
}

func toGoalItem(g *model.Goal) *dto.GoalItem {
	item := &dto.GoalItem{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Category:    g.Category,
		Progress:    g.Progress,
		Status:      g.Status,
		CreatedAt:   g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   g.UpdatedAt.Format(time.RFC3339),
	}
	if g.TargetDate != nil {
		item.TargetDate = g.TargetDate.Format(time.DateOnly)
	}
	return item
}
