package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/antonholmquist/jason"
	"golang.org/x/time/rate"
)

// RemoteAdapter calls an HTTP inference sidecar. The response is loosely
// typed JSON and is converted into a ModelResult right away; anything that
// does not fit yields ErrMalformedOutput.
//
//	sentiment: {"score": 0.4, "confidence": 0.9}
//	emotion:   {"emotions": [{"label": "joy", "confidence": 0.8}], "confidence": 0.7}
//	topic:     {"topics": [{"label": "work", "relevance": 1.0}], "confidence": 0.6}
type RemoteAdapter struct {
	name     string
	kind     Kind
	spec     Spec
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

type RemoteOption func(*RemoteAdapter)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(a *RemoteAdapter) { a.client = c }
}

func WithAPIKey(key string) RemoteOption {
	return func(a *RemoteAdapter) { a.apiKey = key }
}

// WithRateLimit caps outgoing calls per second. Zero disables limiting.
func WithRateLimit(perSecond float64) RemoteOption {
	return func(a *RemoteAdapter) {
		if perSecond > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func NewRemoteAdapter(name string, kind Kind, spec Spec, endpoint string, opts ...RemoteOption) *RemoteAdapter {
	a := &RemoteAdapter{
		name:     name,
		kind:     kind,
		spec:     spec,
		endpoint: endpoint,
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *RemoteAdapter) Name() string { return a.name }
func (a *RemoteAdapter) Kind() Kind   { return a.kind }
func (a *RemoteAdapter) Spec() Spec   { return a.spec }

type remoteRequest struct {
	Kind   Kind     `json:"kind"`
	Text   string   `json:"text"`
	Tokens []string `json:"tokens"`
}

func (a *RemoteAdapter) Analyze(ctx context.Context, text *NormalizedText) (*ModelResult, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	limited := text.Limit(a.spec.MaxInputTokens)
	body, err := json.Marshal(remoteRequest{Kind: a.kind, Text: limited.Text, Tokens: limited.Tokens})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("remote call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("remote returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	obj, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return a.convert(obj)
}

func (a *RemoteAdapter) convert(obj *jason.Object) (*ModelResult, error) {
	confidence, err := obj.GetFloat64("confidence")
	if err != nil || confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("%w: confidence missing or out of range", ErrMalformedOutput)
	}
	result := &ModelResult{Adapter: a.name, Kind: a.kind, Confidence: confidence}

	switch a.kind {
	case KindSentiment:
		score, err := obj.GetFloat64("score")
		if err != nil || score < -1 || score > 1 {
			return nil, fmt.Errorf("%w: score missing or out of range", ErrMalformedOutput)
		}
		result.Sentiment = &score

	case KindEmotion:
		items, err := obj.GetObjectArray("emotions")
		if err != nil {
			return nil, fmt.Errorf("%w: emotions: %v", ErrMalformedOutput, err)
		}
		for _, item := range items {
			label, err1 := item.GetString("label")
			conf, err2 := item.GetFloat64("confidence")
			if err1 != nil || err2 != nil || label == "" || conf < 0 || conf > 1 {
				return nil, fmt.Errorf("%w: bad emotion entry", ErrMalformedOutput)
			}
			result.Emotions = append(result.Emotions, Emotion{Label: label, Confidence: conf})
		}
		sortEmotions(result.Emotions)

	case KindTopic:
		items, err := obj.GetObjectArray("topics")
		if err != nil {
			return nil, fmt.Errorf("%w: topics: %v", ErrMalformedOutput, err)
		}
		for _, item := range items {
			label, err1 := item.GetString("label")
			rel, err2 := item.GetFloat64("relevance")
			if err1 != nil || err2 != nil || label == "" || rel < 0 {
				return nil, fmt.Errorf("%w: bad topic entry", ErrMalformedOutput)
			}
			result.Topics = append(result.Topics, Topic{Label: label, Relevance: rel})
		}

	default:
		return nil, fmt.Errorf("unsupported adapter kind %q", a.kind)
	}
	return result, nil
}
