package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/presence-scanner/internal/model"
)

func newTestQueue(t *testing.T, ttl time.Duration) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, ttl), mr
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	q, _ := newTestQueue(t, 0)
	ctx := context.Background()

	task, err := q.Enqueue(ctx, model.BusinessInput{
		Name: "Acme Corp",
		City: "Springfield",
	}, "https://hooks.example.com/done")
	require.NoError(t, err)
	require.NotEmpty(t, task.ID)

	status, err := q.Status(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusQueued, status)

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "Acme Corp", got.Business.Name)
	assert.Equal(t, "https://hooks.example.com/done", got.WebhookURL)
}

func TestDequeueTimeout(t *testing.T) {
	q, _ := newTestQueue(t, 0)

	task, err := q.Dequeue(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestDequeueIsFIFO(t *testing.T) {
	q, _ := newTestQueue(t, 0)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, model.BusinessInput{Name: "First"}, "")
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, model.BusinessInput{Name: "Second"}, "")
	require.NoError(t, err)

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestStatusTransitions(t *testing.T) {
	q, _ := newTestQueue(t, 0)
	ctx := context.Background()

	task, err := q.Enqueue(ctx, model.BusinessInput{Name: "Acme Corp"}, "")
	require.NoError(t, err)

	require.NoError(t, q.MarkActive(ctx, task.ID))
	status, err := q.Status(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusActive, status)

	result := &model.ScanResult{ScanID: task.ID, Business: task.Business}
	require.NoError(t, q.Complete(ctx, task.ID, result))

	status, err = q.Status(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusCompleted, status)

	got, err := q.Result(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ScanID)
}

func TestFailRecordsReason(t *testing.T) {
	q, _ := newTestQueue(t, 0)
	ctx := context.Background()

	task, err := q.Enqueue(ctx, model.BusinessInput{Name: "Acme Corp"}, "")
	require.NoError(t, err)
	require.NoError(t, q.Fail(ctx, task.ID, "scan aborted"))

	status, err := q.Status(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusFailed, status)

	_, err = q.Result(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusUnknownTask(t *testing.T) {
	q, _ := newTestQueue(t, 0)

	_, err := q.Status(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultBeforeCompletion(t *testing.T) {
	q, _ := newTestQueue(t, 0)
	ctx := context.Background()

	task, err := q.Enqueue(ctx, model.BusinessInput{Name: "Acme Corp"}, "")
	require.NoError(t, err)

	_, err = q.Result(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompletedTaskExpires(t *testing.T) {
	q, mr := newTestQueue(t, time.Minute)
	ctx := context.Background()

	task, err := q.Enqueue(ctx, model.BusinessInput{Name: "Acme Corp"}, "")
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, task.ID, &model.ScanResult{ScanID: task.ID}))

	mr.FastForward(2 * time.Minute)

	_, err = q.Status(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPing(t *testing.T) {
	q, _ := newTestQueue(t, 0)
	assert.NoError(t, q.Ping(context.Background()))
}
