package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/repository"
)

const insightTopN = 5

// InsightService summarizes a user's analyzed entries.
type InsightService struct {
	entryRepo      *repository.EntryRepository
	annotationRepo *repository.AnnotationRepository
	moodRepo       *repository.MoodRepository
}

func NewInsightService(
	entryRepo *repository.EntryRepository,
	annotationRepo *repository.AnnotationRepository,
	moodRepo *repository.MoodRepository,
) *InsightService {
	return &InsightService{entryRepo: entryRepo, annotationRepo: annotationRepo, moodRepo: moodRepo}
}

// Summary covers annotations created in [from, to), newest per entry. Zero bounds are open.
func (s *InsightService) Summary(ctx context.Context, userID int64, from, to time.Time) (*dto.InsightSummary, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, ErrInvalidRange
	}

	latest := make(map[int64]*model.Annotation)
	it := s.annotationRepo.History(userID, from, to)
	for it.Next(ctx) {
		ann := it.Annotation()
		latest[ann.EntryID] = ann
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	anns := make([]*model.Annotation, 0, len(latest))
	for _, a := range latest {
		anns = append(anns, a)
	}
	sort.Slice(anns, func(i, j int) bool {
		if !anns[i].CreatedAt.Equal(anns[j].CreatedAt) {
			return anns[i].CreatedAt.Before(anns[j].CreatedAt)
		}
		return anns[i].ID < anns[j].ID
	})

	summary := &dto.InsightSummary{
		EntriesAnalyzed: len(anns),
		SentimentCounts: map[string]int{
			model.SentimentPositive: 0,
			model.SentimentNegative: 0,
			model.SentimentNeutral:  0,
		},
		SentimentSeries: make([]dto.SentimentPoint, 0, len(anns)),
	}
	if !from.IsZero() {
		summary.From = from.Format(time.RFC3339)
	}
	if !to.IsZero() {
		summary.To = to.Format(time.RFC3339)
	}

	emotions := make(map[string]int)
	topics := make(map[string]int)
	var sentimentSum float64
	var sentimentN int
	for _, a := range anns {
		if a.LowConfidence {
			summary.LowConfidence++
		}
		if !a.SentimentMissing {
			sentimentSum += a.SentimentScore
			sentimentN++
			summary.SentimentCounts[a.SentimentLabel]++
			summary.SentimentSeries = append(summary.SentimentSeries, dto.SentimentPoint{
				EntryID: a.EntryID,
				Score:   a.SentimentScore,
				Label:   a.SentimentLabel,
				At:      a.CreatedAt.Format(time.RFC3339),
			})
		}
		for _, e := range a.Emotions {
			emotions[e.Label]++
		}
		for _, t := range a.Topics {
			topics[t.Label]++
		}
	}
	if sentimentN > 0 {
		summary.AverageSentiment = math.Round(sentimentSum/float64(sentimentN)*10000) / 10000
	}
	summary.TopEmotions = topCounts(emotions, insightTopN)
	summary.TopTopics = topCounts(topics, insightTopN)

	total, err := s.entryRepo.CountByUser(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalEntries = total

	avg, checkIns, err := s.moodRepo.AverageScore(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if checkIns > 0 {
		summary.Mood = &dto.MoodSummary{
			Average:  math.Round(avg*100) / 100,
			CheckIns: checkIns,
		}
	}

	return summary, nil
}

// topCounts orders by count desc, then label, and keeps the first n.
func topCounts(counts map[string]int, n int) []dto.LabelCount {
	out := make([]dto.LabelCount, 0, len(counts))
	for label, c := range counts {
		out = append(out, dto.LabelCount{Label: label, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
