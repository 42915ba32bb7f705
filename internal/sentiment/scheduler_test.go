package sentiment

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/postpulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(store domain.PostStore, debouncer Debouncer) *Scheduler {
	enricher := NewEnricher(store, &mockLexiconModel{}, &mockClassifierModel{}, 10)
	return NewScheduler(enricher, debouncer)
}

func TestScheduler_Trigger_RunsInBackground(t *testing.T) {
	ran := make(chan struct{}, 1)
	store := &mockPostStore{
		findUnscoredFn: func(context.Context, int) ([]domain.Post, error) {
			ran <- struct{}{}
			return nil, nil
		},
	}

	scheduler := newTestScheduler(store, nil)
	scheduler.Start()
	defer scheduler.Stop()

	ack, err := scheduler.Trigger(context.Background())

	require.NoError(t, err)
	assert.True(t, ack.Queued)
	assert.NotEqual(t, uuid.Nil, ack.RunID)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("enrichment run did not execute")
	}
}

func TestScheduler_Trigger_Debounced(t *testing.T) {
	var runs atomic.Int32
	store := &mockPostStore{
		findUnscoredFn: func(context.Context, int) ([]domain.Post, error) {
			runs.Add(1)
			return nil, nil
		},
	}
	debouncer := &mockDebouncer{
		allowFn: func(context.Context) (bool, error) { return false, nil },
	}

	scheduler := newTestScheduler(store, debouncer)
	scheduler.Start()
	defer scheduler.Stop()

	ack, err := scheduler.Trigger(context.Background())

	require.NoError(t, err)
	assert.False(t, ack.Queued)
	assert.NotEqual(t, uuid.Nil, ack.RunID)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestScheduler_Trigger_DebouncerErrorStillQueues(t *testing.T) {
	ran := make(chan struct{}, 1)
	store := &mockPostStore{
		findUnscoredFn: func(context.Context, int) ([]domain.Post, error) {
			ran <- struct{}{}
			return nil, nil
		},
	}
	debouncer := &mockDebouncer{
		allowFn: func(context.Context) (bool, error) {
			return false, fmt.Errorf("redis unavailable")
		},
	}

	scheduler := newTestScheduler(store, debouncer)
	scheduler.Start()
	defer scheduler.Stop()

	ack, err := scheduler.Trigger(context.Background())

	require.NoError(t, err)
	assert.True(t, ack.Queued)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("enrichment run did not execute")
	}
}

func TestScheduler_Trigger_FullQueueDrops(t *testing.T) {
	// Worker never started, so queued triggers stay in the channel.
	scheduler := newTestScheduler(&mockPostStore{}, nil)

	for i := 0; i < runQueueSize; i++ {
		ack, err := scheduler.Trigger(context.Background())
		require.NoError(t, err)
		require.True(t, ack.Queued)
	}

	ack, err := scheduler.Trigger(context.Background())
	require.NoError(t, err)
	assert.False(t, ack.Queued)
}

func TestScheduler_Stop_Idempotent(t *testing.T) {
	scheduler := newTestScheduler(&mockPostStore{}, nil)
	scheduler.Start()

	scheduler.Stop()
	scheduler.Stop()
}

func TestScheduler_RunFailureDoesNotKillWorker(t *testing.T) {
	var calls atomic.Int32
	ran := make(chan struct{}, 2)
	store := &mockPostStore{
		findUnscoredFn: func(context.Context, int) ([]domain.Post, error) {
			defer func() { ran <- struct{}{} }()
			if calls.Add(1) == 1 {
				return nil, fmt.Errorf("transient store failure")
			}
			return nil, nil
		},
	}

	scheduler := newTestScheduler(store, nil)
	scheduler.Start()
	defer scheduler.Stop()

	for i := 0; i < 2; i++ {
		_, err := scheduler.Trigger(context.Background())
		require.NoError(t, err)
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d did not execute", i+1)
		}
	}

	assert.Equal(t, int32(2), calls.Load())
}
