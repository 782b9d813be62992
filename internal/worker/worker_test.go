package worker_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskmate/backend/internal/worker"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestEnqueueAndProcess(t *testing.T) {
	client, _ := setupQueue(t)
	queue := worker.NewJobQueue(client)

	require.NoError(t, queue.Enqueue(worker.JobTypeTaskEvent, map[string]interface{}{
		"user_id": "abc",
	}))

	size, err := queue.QueueSize()
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	var (
		mu  sync.Mutex
		got *worker.Job
	)
	done := make(chan struct{})

	w := worker.NewWorker(worker.WorkerConfig{RedisClient: client})
	w.RegisterHandler(worker.JobTypeTaskEvent, func(ctx context.Context, job *worker.Job) error {
		mu.Lock()
		got = job
		mu.Unlock()
		close(done)
		return nil
	})
	w.Start(1)
	defer w.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, worker.JobTypeTaskEvent, got.Type)
	assert.Equal(t, "abc", got.Payload["user_id"])
	assert.Equal(t, 3, got.MaxTries)
}

func TestFailedJobLandsOnRetryQueue(t *testing.T) {
	client, _ := setupQueue(t)
	queue := worker.NewJobQueue(client)

	require.NoError(t, queue.Enqueue(worker.JobTypeTaskEvent, map[string]interface{}{}))

	failed := make(chan struct{})
	var once sync.Once

	// The worker only drains the main queue here, so the retried job stays
	// parked where we can inspect it.
	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient: client,
		Queues:      []string{worker.DefaultQueue},
	})
	w.RegisterHandler(worker.JobTypeTaskEvent, func(ctx context.Context, job *worker.Job) error {
		once.Do(func() { close(failed) })
		return assert.AnError
	})
	w.Start(1)
	defer w.Stop()

	select {
	case <-failed:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never ran")
	}

	var raw string
	require.Eventually(t, func() bool {
		var err error
		raw, err = client.LIndex(context.Background(), worker.RetryQueue, 0).Result()
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	var job worker.Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, 1, job.Attempts)
	assert.True(t, job.ProcessAt.After(time.Now()), "retry must be deferred")
}

func TestDeferredJobIsNotRunEarly(t *testing.T) {
	client, _ := setupQueue(t)

	job := worker.Job{
		ID:        "later",
		Type:      worker.JobTypeTaskEvent,
		Payload:   map[string]interface{}{},
		MaxTries:  3,
		CreatedAt: time.Now(),
		ProcessAt: time.Now().Add(time.Hour),
	}
	data, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, client.RPush(context.Background(), worker.DefaultQueue, data).Err())

	var ran int32
	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient: client,
		Queues:      []string{worker.DefaultQueue},
	})
	w.RegisterHandler(worker.JobTypeTaskEvent, func(ctx context.Context, job *worker.Job) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	w.Start(1)
	defer w.Stop()

	// The worker pops the job, sees it is not due, and parks it again.
	time.Sleep(300 * time.Millisecond)

	assert.Zero(t, atomic.LoadInt32(&ran))
	size, err := client.LLen(context.Background(), worker.DefaultQueue).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestExhaustedJobLandsOnDeadQueue(t *testing.T) {
	client, _ := setupQueue(t)

	// A job on its last allowed attempt.
	job := worker.Job{
		ID:        "doomed",
		Type:      worker.JobTypeTaskEvent,
		Payload:   map[string]interface{}{},
		Attempts:  0,
		MaxTries:  1,
		CreatedAt: time.Now(),
		ProcessAt: time.Now(),
	}
	data, err := json.Marshal(job)
	require.NoError(t, err)
	require.NoError(t, client.RPush(context.Background(), worker.DefaultQueue, data).Err())

	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient: client,
		Queues:      []string{worker.DefaultQueue},
	})
	w.RegisterHandler(worker.JobTypeTaskEvent, func(ctx context.Context, job *worker.Job) error {
		return assert.AnError
	})
	w.Start(1)
	defer w.Stop()

	var raw string
	require.Eventually(t, func() bool {
		var err error
		raw, err = client.LIndex(context.Background(), worker.DeadQueue, 0).Result()
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	var dead map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &dead))
	assert.Contains(t, dead, "original_job")
	assert.Contains(t, dead, "error")
}
