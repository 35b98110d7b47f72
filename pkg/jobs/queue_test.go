package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	processed := make(chan Job, 1)
	q := New("test", func(ctx context.Context, job Job) error {
		processed <- job
		return nil
	}, Config{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Kind: "audit"}))

	select {
	case job := <-processed:
		require.Equal(t, "job-1", job.ID)
		require.False(t, job.EnqueuedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})
	q := New("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return context.DeadlineExceeded
		}
		close(done)
		return nil
	}, Config{Workers: 1, MaxAttempts: 3, Backoff: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Kind: "audit"}))

	select {
	case <-done:
		mu.Lock()
		require.Equal(t, 2, attempts)
		mu.Unlock()
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := New("test", func(ctx context.Context, job Job) error { return nil }, Config{})
	require.ErrorIs(t, q.Enqueue(Job{ID: "job-1"}), ErrNotStarted)
}

func TestQueueFullBuffer(t *testing.T) {
	block := make(chan struct{})
	running := make(chan struct{}, 2)
	q := New("test", func(ctx context.Context, job Job) error {
		running <- struct{}{}
		<-block
		return nil
	}, Config{Workers: 1, BufferSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	// First job occupies the worker, second fills the buffer; the third
	// must fail fast instead of blocking.
	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	<-running // wait until the worker has pulled job-1 off the buffer
	require.NoError(t, q.Enqueue(Job{ID: "job-2"}))
	err := q.Enqueue(Job{ID: "job-3"})
	for err == nil {
		err = q.Enqueue(Job{ID: "job-3"})
	}
	require.ErrorIs(t, err, ErrQueueFull)

	close(block)
	q.Stop()
}
