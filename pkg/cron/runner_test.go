package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerAdd(t *testing.T) {
	noop := func(context.Context) {}

	t.Run("valid task", func(t *testing.T) {
		r := NewRunner()
		require.NoError(t, r.Add(Task{Name: "due-scan", Schedule: "5s", Run: noop}))

		tasks := r.Tasks()
		require.Len(t, tasks, 1)
		assert.Equal(t, "due-scan", tasks[0].Name)
	})

	t.Run("missing name", func(t *testing.T) {
		r := NewRunner()
		assert.Error(t, r.Add(Task{Schedule: "5s", Run: noop}))
	})

	t.Run("missing run function", func(t *testing.T) {
		r := NewRunner()
		assert.Error(t, r.Add(Task{Name: "x", Schedule: "5s"}))
	})

	t.Run("invalid schedule", func(t *testing.T) {
		r := NewRunner()
		assert.Error(t, r.Add(Task{Name: "x", Schedule: "100ms", Run: noop}))
	})

	t.Run("duplicate name", func(t *testing.T) {
		r := NewRunner()
		require.NoError(t, r.Add(Task{Name: "x", Schedule: "5s", Run: noop}))
		assert.Error(t, r.Add(Task{Name: "x", Schedule: "10s", Run: noop}))
	})

	t.Run("after stop", func(t *testing.T) {
		r := NewRunner()
		require.NoError(t, r.Stop(context.Background()))
		assert.Error(t, r.Add(Task{Name: "x", Schedule: "5s", Run: noop}))
	})
}

func TestRunnerRuns(t *testing.T) {
	var runs atomic.Int32

	r := NewRunner()
	require.NoError(t, r.Add(Task{
		Name:     "tick",
		Schedule: "1s",
		Run:      func(context.Context) { runs.Add(1) },
	}))
	r.Start()
	defer r.Stop(context.Background())

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestRunnerRecoversPanics(t *testing.T) {
	var runs atomic.Int32

	r := NewRunner()
	require.NoError(t, r.Add(Task{
		Name:     "boom",
		Schedule: "1s",
		Run: func(context.Context) {
			runs.Add(1)
			panic("boom")
		},
	}))
	r.Start()
	defer r.Stop(context.Background())

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
}

func TestRunnerStop(t *testing.T) {
	t.Run("cancels running tasks and waits", func(t *testing.T) {
		started := make(chan struct{})
		var finished atomic.Bool

		r := NewRunner()
		require.NoError(t, r.Add(Task{
			Name:     "slow",
			Schedule: "1s",
			Run: func(ctx context.Context) {
				select {
				case started <- struct{}{}:
				default:
				}
				<-ctx.Done()
				finished.Store(true)
			},
		}))
		r.Start()

		select {
		case <-started:
		case <-time.After(3 * time.Second):
			t.Fatal("task never started")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, r.Stop(ctx))
		assert.True(t, finished.Load())
	})

	t.Run("no runs after stop", func(t *testing.T) {
		var runs atomic.Int32

		r := NewRunner()
		require.NoError(t, r.Add(Task{
			Name:     "tick",
			Schedule: "1s",
			Run:      func(context.Context) { runs.Add(1) },
		}))
		r.Start()
		require.NoError(t, r.Stop(context.Background()))

		before := runs.Load()
		time.Sleep(1500 * time.Millisecond)
		assert.Equal(t, before, runs.Load())
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		r := NewRunner()
		r.Start()
		require.NoError(t, r.Stop(context.Background()))
		require.NoError(t, r.Stop(context.Background()))
	})
}
