package nlp

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/123sania456789/MindTrackAI/config"
)

// NewAnalyzerFromConfig wires adapters, runner and aggregator the same way
// for the API server and the workers.
func NewAnalyzerFromConfig(cfg *config.Config, handle *ModelHandle, logger *zap.Logger, opts ...RunnerOption) (*Analyzer, error) {
	adapters, err := BuildAdapters(cfg.Models, handle)
	if err != nil {
		return nil, err
	}
	runner := NewRunner(adapters, RunnerConfig{
		MaxRetries:     cfg.Pipeline.MaxRetries,
		InitialBackoff: cfg.Pipeline.InitialBackoff,
		MaxBackoff:     cfg.Pipeline.MaxBackoff,
		JobTimeout:     cfg.Pipeline.JobTimeout,
	}, logger, opts...)
	return NewAnalyzer(runner, NewAggregator(AggregatorConfig{
		TopEmotions:            cfg.Analysis.TopEmotions,
		TopTopics:              cfg.Analysis.TopTopics,
		LowConfidenceThreshold: cfg.Analysis.LowConfidenceThreshold,
		TruncationPenalty:      cfg.Analysis.TruncationPenalty,
	})), nil
}

// BuildAdapters instantiates the enabled adapters from config, in config
// order. That order is also the aggregation order.
func BuildAdapters(models []config.ModelConfig, handle *ModelHandle) ([]Adapter, error) {
	var adapters []Adapter
	seen := make(map[string]bool)

	for _, m := range models {
		if !m.Enabled {
			continue
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("duplicate adapter name %q", m.Name)
		}
		seen[m.Name] = true

		kind := Kind(m.Kind)
		if !kind.Valid() {
			return nil, fmt.Errorf("adapter %s: unknown kind %q", m.Name, m.Kind)
		}
		spec := Spec{
			MaxInputTokens: m.MaxInputTokens,
			LatencyBound:   m.Timeout,
			MaxRetries:     m.MaxRetries,
			FailureMode:    FailureTimeout,
		}

		switch m.Provider {
		case "", "lexicon":
			if handle == nil {
				return nil, fmt.Errorf("adapter %s: lexicon provider needs a model handle", m.Name)
			}
			adapters = append(adapters, newLexiconAdapter(m.Name, kind, spec, handle))
		case "remote":
			if m.Endpoint == "" {
				return nil, fmt.Errorf("adapter %s: remote provider needs an endpoint", m.Name)
			}
			spec.FailureMode = FailureMalformed
			adapters = append(adapters, NewRemoteAdapter(m.Name, kind, spec, m.Endpoint,
				WithAPIKey(m.APIKey), WithRateLimit(m.RatePerSecond)))
		default:
			return nil, fmt.Errorf("adapter %s: unknown provider %q", m.Name, m.Provider)
		}
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no analysis adapters enabled")
	}
	return adapters, nil
}

func newLexiconAdapter(name string, kind Kind, spec Spec, handle *ModelHandle) Adapter {
	switch kind {
	case KindSentiment:
		return NewSentimentAdapter(name, spec, handle)
	case KindEmotion:
		return NewEmotionAdapter(name, spec, handle)
	default:
		return NewTopicAdapter(name, spec, handle)
	}
}
