package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelAnalysisProgress = "analysis_progress"
)

// ProgressMessage is pushed to the owner's websocket connections.
type ProgressMessage struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	EntryID  int64  `json:"entry_id"`
	JobID    int64  `json:"job_id"`
	Status   string `json:"status"`
	Step     string `json:"step"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

const (
	StepQueued      = "queued"
	StepNormalizing = "normalizing"
	StepAnalyzing   = "analyzing"
	StepAggregating = "aggregating"
	StepSaving      = "saving"
	StepDone        = "done"
)

var StepProgress = map[string]int{
	StepQueued:      5,
	StepNormalizing: 15,
	StepAnalyzing:   40,
	StepAggregating: 70,
	StepSaving:      85,
	StepDone:        100,
}

var StepMessages = map[string]string{
	StepQueued:      "Waiting for a worker",
	StepNormalizing: "Cleaning up the entry text",
	StepAnalyzing:   "Running sentiment, emotion and topic models",
	StepAggregating: "Combining model results",
	StepSaving:      "Saving insights",
	StepDone:        "Analysis finished",
}

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProgress fills Progress and Message from Step when unset.
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	msg.Type = "job_progress"

	if msg.Progress == 0 && msg.Step != "" {
		if progress, ok := StepProgress[msg.Step]; ok {
			msg.Progress = progress
		}
	}
	if msg.Message == "" && msg.Step != "" {
		if message, ok := StepMessages[msg.Step]; ok {
			msg.Message = message
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, ChannelAnalysisProgress, data).Err()
}

type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe calls handler for each progress message until ctx is done.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ProgressMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelAnalysisProgress)
	defer pubsub.Close()

	// wait for the subscription to be confirmed so early publishes are not lost
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue
			}

			handler(&progressMsg)
		}
	}
}
