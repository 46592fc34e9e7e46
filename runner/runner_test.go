package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerSuccessfulRun(t *testing.T) {
	r := New()

	runID := r.Submit(context.Background(), "test-stage", func(ctx context.Context, runID string) error {
		return nil
	})

	require.NoError(t, r.Wait(context.Background(), runID))

	snap, err := r.Status(runID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, snap.Status)
	assert.Equal(t, "test-stage", snap.Stage)
	assert.NoError(t, snap.Err)
}

func TestRunnerFailedRun(t *testing.T) {
	r := New()

	runID := r.Submit(context.Background(), "test-stage", func(ctx context.Context, runID string) error {
		return errors.New("stage blew up")
	})

	err := r.Wait(context.Background(), runID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage blew up")

	snap, err := r.Status(runID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, snap.Status)
}

func TestRunnerPanicIsCaptured(t *testing.T) {
	r := New()

	runID := r.Submit(context.Background(), "test-stage", func(ctx context.Context, runID string) error {
		panic("unexpected")
	})

	err := r.Wait(context.Background(), runID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	snap, err := r.Status(runID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, snap.Status)
}

func TestRunnerConcurrentRunsAreIndependent(t *testing.T) {
	r := New(func(o *Options) { o.MaxConcurrent = 4 })

	var mu sync.Mutex
	seen := map[string]bool{}

	ids := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		id := r.Submit(context.Background(), "test-stage", func(ctx context.Context, runID string) error {
			mu.Lock()
			seen[runID] = true
			mu.Unlock()
			return nil
		})
		ids = append(ids, id)
	}

	for _, id := range ids {
		require.NoError(t, r.Wait(context.Background(), id))
	}

	assert.Len(t, seen, 8)
}

func TestRunnerCancel(t *testing.T) {
	r := New()

	started := make(chan struct{})
	runID := r.Submit(context.Background(), "test-stage", func(ctx context.Context, runID string) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	require.NoError(t, r.Cancel(runID))

	err := r.Wait(context.Background(), runID)
	assert.ErrorIs(t, err, context.Canceled)

	snap, err := r.Status(runID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, snap.Status)
}

func TestRunnerDetachesFromCallerContext(t *testing.T) {
	r := New()

	callerCtx, cancel := context.WithCancel(context.Background())

	runID := r.Submit(callerCtx, "test-stage", func(ctx context.Context, runID string) error {
		// Caller cancellation must not reach the run.
		cancel()
		time.Sleep(10 * time.Millisecond)
		return ctx.Err()
	})

	require.NoError(t, r.Wait(context.Background(), runID))
}

func TestRunnerUnknownRun(t *testing.T) {
	r := New()

	_, err := r.Status("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.ErrorIs(t, r.Wait(context.Background(), "nope"), ErrRunNotFound)
	assert.ErrorIs(t, r.Cancel("nope"), ErrRunNotFound)
}

func TestRunnerShutdownDrains(t *testing.T) {
	r := New()

	for i := 0; i < 4; i++ {
		r.Submit(context.Background(), "test-stage", func(ctx context.Context, runID string) error {
			time.Sleep(5 * time.Millisecond)
			return nil
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, r.Shutdown(ctx))
	assert.Equal(t, 0, r.Active())
}
