// Package queue implements the scan task queue on redis: producers enqueue
// scan requests, workers block-pop them, and task status plus the final
// result are kept in per-task hashes for polling.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-scanner/internal/model"
)

const (
	listKey       = "presence-scans:pending"
	taskKeyPrefix = "presence-scans:task:"
)

// ErrNotFound is returned when a task ID is unknown.
var ErrNotFound = eris.New("queue: task not found")

// Task is one queued scan request.
type Task struct {
	ID         string              `json:"id"`
	Business   model.BusinessInput `json:"business"`
	WebhookURL string              `json:"webhook_url,omitempty"`
	EnqueuedAt time.Time           `json:"enqueued_at"`
}

// Queue is a redis-backed scan queue.
type Queue struct {
	rdb       *redis.Client
	resultTTL time.Duration
}

// New creates a queue on the given redis client. Completed and failed task
// records expire after resultTTL; zero keeps them forever.
func New(rdb *redis.Client, resultTTL time.Duration) *Queue {
	return &Queue{rdb: rdb, resultTTL: resultTTL}
}

// Enqueue adds a scan task and marks it queued.
func (q *Queue) Enqueue(ctx context.Context, business model.BusinessInput, webhookURL string) (*Task, error) {
	task := &Task{
		ID:         uuid.New().String(),
		Business:   business,
		WebhookURL: webhookURL,
		EnqueuedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return nil, eris.Wrap(err, "queue: marshal task")
	}

	pipe := q.rdb.TxPipeline()
	pipe.HSet(ctx, taskKeyPrefix+task.ID, "status", string(model.ScanStatusQueued))
	pipe.RPush(ctx, listKey, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, eris.Wrap(err, "queue: enqueue")
	}

	return task, nil
}

// Dequeue blocks until a task is available or the timeout elapses.
// Returns nil without error on timeout.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	vals, err := q.rdb.BLPop(ctx, timeout, listKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "queue: blpop")
	}
	if len(vals) < 2 {
		return nil, eris.Errorf("queue: unexpected blpop reply of %d values", len(vals))
	}

	var task Task
	if err := json.Unmarshal([]byte(vals[1]), &task); err != nil {
		return nil, eris.Wrap(err, "queue: unmarshal task")
	}
	return &task, nil
}

// MarkActive transitions a task to active.
func (q *Queue) MarkActive(ctx context.Context, taskID string) error {
	err := q.rdb.HSet(ctx, taskKeyPrefix+taskID, "status", string(model.ScanStatusActive)).Err()
	return eris.Wrap(err, "queue: mark active")
}

// Complete stores the final result and transitions the task to completed.
func (q *Queue) Complete(ctx context.Context, taskID string, result *model.ScanResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "queue: marshal result")
	}

	key := taskKeyPrefix + taskID
	pipe := q.rdb.TxPipeline()
	pipe.HSet(ctx, key, "status", string(model.ScanStatusCompleted), "result", payload)
	if q.resultTTL > 0 {
		pipe.Expire(ctx, key, q.resultTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrap(err, "queue: complete")
	}
	return nil
}

// Fail records a task failure.
func (q *Queue) Fail(ctx context.Context, taskID string, reason string) error {
	key := taskKeyPrefix + taskID
	pipe := q.rdb.TxPipeline()
	pipe.HSet(ctx, key, "status", string(model.ScanStatusFailed), "error", reason)
	if q.resultTTL > 0 {
		pipe.Expire(ctx, key, q.resultTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrap(err, "queue: fail")
	}
	return nil
}

// Status returns a task's current status.
func (q *Queue) Status(ctx context.Context, taskID string) (model.ScanStatus, error) {
	status, err := q.rdb.HGet(ctx, taskKeyPrefix+taskID, "status").Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrap(err, "queue: get status")
	}
	return model.ScanStatus(status), nil
}

// Result returns the stored result of a completed task. ErrNotFound covers
// both unknown tasks and tasks that have not completed yet.
func (q *Queue) Result(ctx context.Context, taskID string) (*model.ScanResult, error) {
	payload, err := q.rdb.HGet(ctx, taskKeyPrefix+taskID, "result").Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "queue: get result")
	}

	var result model.ScanResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, eris.Wrap(err, "queue: unmarshal result")
	}
	return &result, nil
}

// Ping verifies the redis connection.
func (q *Queue) Ping(ctx context.Context) error {
	return eris.Wrap(q.rdb.Ping(ctx).Err(), "queue: ping")
}

// Close releases the underlying redis client.
func (q *Queue) Close() error {
	return q.rdb.Close()
}
