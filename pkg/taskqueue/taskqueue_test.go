package taskqueue

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger(logger.Config{
		Level:  logger.DebugLevel,
		Output: io.Discard,
	})
}

func TestSubmitRunsTask(t *testing.T) {
	q := New(Config{Workers: 2, QueueSize: 4, Logger: newTestLogger()})

	var ran atomic.Bool
	done := make(chan struct{})
	ok := q.Submit("test", func(_ context.Context) error {
		ran.Store(true)
		close(done)
		return nil
	})
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	assert.True(t, ran.Load())
	q.Close()
}

func TestSubmitDropsWhenFull(t *testing.T) {
	q := New(Config{Workers: 1, QueueSize: 1, Logger: newTestLogger()})
	defer q.Close()

	block := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	// Occupy the single worker.
	q.Submit("blocker", func(_ context.Context) error {
		wg.Done()
		<-block
		return nil
	})
	wg.Wait()

	// Fill the queue, then overflow it.
	assert.True(t, q.Submit("queued", func(_ context.Context) error { return nil }))
	assert.False(t, q.Submit("dropped", func(_ context.Context) error { return nil }))

	close(block)
}

func TestFailedTaskIsDiscarded(t *testing.T) {
	q := New(Config{Workers: 1, QueueSize: 4, Logger: newTestLogger()})

	done := make(chan struct{})
	q.Submit("failing", func(_ context.Context) error {
		defer close(done)
		return errors.New("boom")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	// A later task still runs.
	again := make(chan struct{})
	q.Submit("next", func(_ context.Context) error {
		close(again)
		return nil
	})
	select {
	case <-again:
	case <-time.After(2 * time.Second):
		t.Fatal("queue stopped after a failed task")
	}
	q.Close()
}

func TestPanickingTaskIsRecovered(t *testing.T) {
	q := New(Config{Workers: 1, QueueSize: 4, Logger: newTestLogger()})

	q.Submit("panicking", func(_ context.Context) error {
		panic("boom")
	})

	done := make(chan struct{})
	q.Submit("survivor", func(_ context.Context) error {
		close(done)
		return nil
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after panic")
	}
	q.Close()
}

func TestCloseDrainsQueue(t *testing.T) {
	q := New(Config{Workers: 2, QueueSize: 8, Logger: newTestLogger()})

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.True(t, q.Submit("work", func(_ context.Context) error {
			ran.Add(1)
			return nil
		}))
	}

	q.Close()
	assert.Equal(t, int32(5), ran.Load())

	// Submissions after close are rejected.
	assert.False(t, q.Submit("late", func(_ context.Context) error { return nil }))
}

func TestTaskContextHasTimeout(t *testing.T) {
	q := New(Config{Workers: 1, QueueSize: 1, TaskTimeout: 10 * time.Millisecond, Logger: newTestLogger()})
	defer q.Close()

	done := make(chan struct{})
	q.Submit("slow", func(ctx context.Context) error {
		defer close(done)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			t.Error("context was not cancelled")
			return nil
		}
	})

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("task never finished")
	}
}
