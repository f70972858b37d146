package dto

// InsightSummary aggregates a user's annotations over [From, To).
type InsightSummary struct {
	From             string           `json:"from,omitempty"`
	To               string           `json:"to,omitempty"`
	TotalEntries     int64            `json:"total_entries"`
	EntriesAnalyzed  int              `json:"entries_analyzed"`
	AverageSentiment float64          `json:"average_sentiment"`
	SentimentCounts  map[string]int   `json:"sentiment_counts"`
	SentimentSeries  []SentimentPoint `json:"sentiment_series"`
	TopEmotions      []LabelCount     `json:"top_emotions"`
	TopTopics        []LabelCount     `json:"top_topics"`
	LowConfidence    int              `json:"low_confidence"`
	Mood             *MoodSummary     `json:"mood,omitempty"`
}

type SentimentPoint struct {
	EntryID int64   `json:"entry_id"`
	Score   float64 `json:"score"`
	Label   string  `json:"label"`
	At      string  `json:"at"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type MoodSummary struct {
	Average  float64 `json:"average"`
	CheckIns int64   `json:"check_ins"`
}
