package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/internal/model"
	"github.com/123sania456789/MindTrackAI/internal/model/dto"
	"github.com/123sania456789/MindTrackAI/internal/nlp"
)

// TextAnalyzer runs the full pipeline on one text.
type TextAnalyzer interface {
	Analyze(ctx context.Context, raw string) (*nlp.Analysis, *nlp.RunResult, error)
}

// TextAnalysisService analyzes text inline for clients that want a result
// without creating an entry.
type TextAnalysisService struct {
	analyzer TextAnalyzer
	logger   *zap.Logger
}

func NewTextAnalysisService(analyzer TextAnalyzer, logger *zap.Logger) *TextAnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextAnalysisService{analyzer: analyzer, logger: logger}
}

func (s *TextAnalysisService) Analyze(ctx context.Context, text string) (*dto.TextAnalysis, error) {
	start := time.Now()
	analysis, _, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		var aggErr *nlp.AggregationError
		switch {
		case errors.Is(err, nlp.ErrInvalidInput):
			return nil, ErrInvalidInput
		case errors.As(err, &aggErr):
			s.logger.Warn("inline analysis failed", zap.Error(err))
			return nil, ErrAnalysisUnavailable
		}
		return nil, fmt.Errorf("failed to analyze text: %w", err)
	}

	out := &dto.TextAnalysis{
		SentimentScore:   analysis.SentimentScore,
		SentimentLabel:   analysis.SentimentLabel,
		Emotions:         make(model.EmotionList, 0, len(analysis.Emotions)),
		Topics:           make(model.TopicList, 0, len(analysis.Topics)),
		Confidence:       analysis.Confidence,
		LowConfidence:    analysis.LowConfidence,
		Truncated:        analysis.Truncated,
		SentimentMissing: analysis.SentimentMissing,
		EmotionsMissing:  analysis.EmotionsMissing,
		TopicsMissing:    analysis.TopicsMissing,
		MissingAdapters:  analysis.MissingAdapters,
		ElapsedMS:        time.Since(start).Milliseconds(),
	}
	for _, e := range analysis.Emotions {
		out.Emotions = append(out.Emotions, model.EmotionScore{Label: e.Label, Confidence: e.Confidence})
	}
	for _, t := range analysis.Topics {
		out.Topics = append(out.Topics, model.TopicScore{Label: t.Label, Relevance: t.Relevance})
	}
	return out, nil
}
