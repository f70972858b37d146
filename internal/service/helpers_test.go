package service

import (
	"context"
	"errors"
	"sync"

	"github.com/123sania456789/MindTrackAI/internal/pkg/pubsub"
	"github.com/123sania456789/MindTrackAI/internal/pkg/queue"
)

type fakeQueue struct {
	mu     sync.Mutex
	pushed []queue.JobMessage
	fail   bool
}

func (q *fakeQueue) Push(ctx context.Context, msg *queue.JobMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail {
		return errors.New("redis: connection refused")
	}
	q.pushed = append(q.pushed, *msg)
	return nil
}

func (q *fakeQueue) messages() []queue.JobMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.JobMessage(nil), q.pushed...)
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []pubsub.ProgressMessage
}

func (p *fakePublisher) PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, *msg)
	return nil
}

func (p *fakePublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Status
	}
	return out
}
