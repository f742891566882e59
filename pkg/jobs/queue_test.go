package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job never succeeded")
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestQueueGivesUpOnPermanentErrors(t *testing.T) {
	permanent := errors.New("permanent")
	var mu sync.Mutex
	var gaveUp []string
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		return permanent
	}, QueueConfig{
		MaxRetries: 5,
		RetryDelay: time.Millisecond,
		Retryable:  func(err error) bool { return !errors.Is(err, permanent) },
		OnGiveUp: func(ctx context.Context, job Job, err error) {
			mu.Lock()
			gaveUp = append(gaveUp, job.ID)
			mu.Unlock()
			close(done)
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("give-up hook not called")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"job-1"}, gaveUp)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
}
