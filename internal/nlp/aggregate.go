package nlp

import (
	"math"
	"sort"
)

// AggregatorConfig tunes the merge step. Zero values fall back to defaults.
type AggregatorConfig struct {
	TopEmotions            int
	TopTopics              int
	LowConfidenceThreshold float64
	TruncationPenalty      float64
}

// Aggregator merges adapter results into one Analysis. Output depends only
// on the order of the input results, never on map iteration.
type Aggregator struct {
	cfg AggregatorConfig
}

func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.TopEmotions <= 0 {
		cfg.TopEmotions = 5
	}
	if cfg.TopTopics <= 0 {
		cfg.TopTopics = 5
	}
	if cfg.LowConfidenceThreshold <= 0 {
		cfg.LowConfidenceThreshold = 0.4
	}
	if cfg.TruncationPenalty <= 0 || cfg.TruncationPenalty > 1 {
		cfg.TruncationPenalty = 0.85
	}
	return &Aggregator{cfg: cfg}
}

// Aggregate merges the successful results of run. It returns an
// *AggregationError when no adapter succeeded.
func (a *Aggregator) Aggregate(run *RunResult) (*Analysis, error) {
	if run == nil || len(run.Results) == 0 {
		var failures []*AdapterError
		if run != nil {
			failures = run.Failures
		}
		return nil, &AggregationError{Failures: failures}
	}

	out := &Analysis{
		SentimentLabel: "neutral",
		Truncated:      run.Truncated,
	}
	for _, f := range run.Failures {
		out.MissingAdapters = append(out.MissingAdapters, f.Adapter)
	}

	present := make(map[Kind]bool)
	var confSum float64
	for _, r := range run.Results {
		present[r.Kind] = true
		confSum += r.Confidence
	}

	if s := firstSentiment(run.Results); s != nil {
		out.SentimentScore = round4(*s)
		out.SentimentLabel = SentimentLabel(*s)
	} else {
		out.SentimentMissing = true
	}
	out.EmotionsMissing = !present[KindEmotion]
	out.TopicsMissing = !present[KindTopic]

	out.Emotions = mergeEmotions(run.Results, a.cfg.TopEmotions)
	out.Topics = mergeTopics(run.Results, a.cfg.TopTopics)

	expected := distinctKinds(run.Expected)
	if expected == 0 {
		expected = len(present)
	}
	coverage := math.Min(1, float64(len(present))/float64(expected))
	conf := confSum / float64(len(run.Results)) * coverage
	if run.Truncated {
		conf *= a.cfg.TruncationPenalty
	}
	out.Confidence = round4(conf)
	out.LowConfidence = out.SentimentMissing || out.Confidence < a.cfg.LowConfidenceThreshold

	return out, nil
}

func firstSentiment(results []*ModelResult) *float64 {
	for _, r := range results {
		if r.Kind == KindSentiment && r.Sentiment != nil {
			return r.Sentiment
		}
	}
	return nil
}

// mergeEmotions unions labels keeping the highest confidence seen.
func mergeEmotions(results []*ModelResult, k int) []Emotion {
	best := make(map[string]float64)
	var labels []string
	for _, r := range results {
		for _, e := range r.Emotions {
			prev, seen := best[e.Label]
			if !seen {
				labels = append(labels, e.Label)
			}
			if !seen || e.Confidence > prev {
				best[e.Label] = e.Confidence
			}
		}
	}

	emotions := make([]Emotion, 0, len(labels))
	for _, l := range labels {
		emotions = append(emotions, Emotion{Label: l, Confidence: round4(best[l])})
	}
	sortEmotions(emotions)
	if len(emotions) > k {
		emotions = emotions[:k]
	}
	return emotions
}

// mergeTopics dedups by label keeping max relevance; ties keep first-seen
// order across adapters, then position within an adapter.
func mergeTopics(results []*ModelResult, k int) []Topic {
	index := make(map[string]int)
	var topics []Topic
	for _, r := range results {
		for _, t := range r.Topics {
			if i, ok := index[t.Label]; ok {
				if t.Relevance > topics[i].Relevance {
					topics[i].Relevance = t.Relevance
				}
				continue
			}
			index[t.Label] = len(topics)
			topics = append(topics, t)
		}
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Relevance > topics[j].Relevance
	})
	if len(topics) > k {
		topics = topics[:k]
	}
	for i := range topics {
		topics[i].Relevance = round4(topics[i].Relevance)
	}
	if topics == nil {
		topics = []Topic{}
	}
	return topics
}

func distinctKinds(kinds []Kind) int {
	seen := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		seen[k] = true
	}
	return len(seen)
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
