package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// promoteBatch bounds how many due retries one Pop moves back.
const promoteBatch = 100

// Queue is a reliable FIFO on redis lists. Popped messages sit in a
// processing list until acked; retries wait in a sorted set keyed by due
// time and are promoted on Pop.
type Queue struct {
	client        *redis.Client
	queueName     string
	processingKey string
	delayedKey    string
}

// JobMessage identifies an analysis job. The text itself stays in the
// database so a message is always small and its encoding is stable.
type JobMessage struct {
	JobID   int64 `json:"job_id"`
	EntryID int64 `json:"entry_id"`
	UserID  int64 `json:"user_id"`
}

// Delivery is a popped message plus the raw payload needed to ack it.
type Delivery struct {
	JobMessage
	raw string
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:        client,
		queueName:     queueName,
		processingKey: queueName + ":processing",
		delayedKey:    queueName + ":delayed",
	}
}

func (q *Queue) Name() string {
	return q.queueName
}

// Push appends a job to the queue.
func (q *Queue) Push(ctx context.Context, msg *JobMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Pop blocks up to timeout for the next job and moves it to the processing
// list. It returns nil, nil on timeout.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}

	raw, err := q.client.BRPopLPush(ctx, q.queueName, q.processingKey, timeout).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	var msg JobMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		// drop poison messages instead of redelivering them forever
		q.client.LRem(ctx, q.processingKey, 1, raw)
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &Delivery{JobMessage: msg, raw: raw}, nil
}

// Ack removes a delivery from the processing list.
func (q *Queue) Ack(ctx context.Context, d *Delivery) error {
	raw, err := d.payload()
	if err != nil {
		return err
	}
	return q.client.LRem(ctx, q.processingKey, 1, raw).Err()
}

// Retry acks d and schedules it again after delay.
func (q *Queue) Retry(ctx context.Context, d *Delivery, delay time.Duration) error {
	raw, err := d.payload()
	if err != nil {
		return err
	}
	due := time.Now().Add(delay).UnixMilli()

	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, q.processingKey, 1, raw)
	pipe.ZAdd(ctx, q.delayedKey, &redis.Z{Score: float64(due), Member: raw})
	_, err = pipe.Exec(ctx)
	return err
}

// Length returns the number of jobs waiting, excluding delayed retries.
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}

// Pending reports jobs popped but not yet acked.
func (q *Queue) Pending(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.processingKey).Result()
}

// Delayed reports jobs waiting for their retry time.
func (q *Queue) Delayed(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.delayedKey).Result()
}

// promoteDue moves retries whose time has come back onto the queue. Only the
// caller whose ZREM succeeds pushes, so concurrent poppers never duplicate.
func (q *Queue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := q.client.ZRangeByScore(ctx, q.delayedKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read delayed jobs: %w", err)
	}

	for _, raw := range due {
		removed, err := q.client.ZRem(ctx, q.delayedKey, raw).Result()
		if err != nil {
			return fmt.Errorf("failed to promote delayed job: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.queueName, raw).Err(); err != nil {
			return fmt.Errorf("failed to promote delayed job: %w", err)
		}
	}
	return nil
}

// payload returns the exact bytes that were queued. Messages built in
// process, for example by the recovery sweep, are re-encoded; the encoding
// of JobMessage is deterministic.
func (d *Delivery) payload() (string, error) {
	if d.raw != "" {
		return d.raw, nil
	}
	data, err := json.Marshal(d.JobMessage)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	return string(data), nil
}

// NewDelivery wraps a message that was not popped from the queue.
func NewDelivery(msg JobMessage) *Delivery {
	return &Delivery{JobMessage: msg}
}
