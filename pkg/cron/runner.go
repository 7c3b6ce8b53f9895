package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Task is a periodic job owned by a Runner
type Task struct {
	Name     string
	Schedule string // "5s", "@every 1m" or a cron expression
	Run      func(ctx context.Context)
}

// TaskInfo describes a registered task
type TaskInfo struct {
	Name    string    `json:"name"`
	NextRun time.Time `json:"nextRun"`
	PrevRun time.Time `json:"prevRun"`
}

// Runner drives periodic tasks. Overlapping runs of the same task are skipped
// and panics are recovered. Stop cancels every timer and waits for running
// tasks to return.
type Runner struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
	logger  zerolog.Logger
}

// NewRunner creates an idle runner
func NewRunner() *Runner {
	logger := log.With().Str("component", "cron").Logger()
	adapter := cronLogger{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// Add registers a task. Tasks may be added before or after Start.
func (r *Runner) Add(task Task) error {
	if task.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if task.Run == nil {
		return fmt.Errorf("task %s: run function is required", task.Name)
	}

	sched, err := ParseSchedule(task.Schedule)
	if err != nil {
		return fmt.Errorf("task %s: %w", task.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return fmt.Errorf("runner is stopped")
	}
	if _, exists := r.entries[task.Name]; exists {
		return fmt.Errorf("task %s already registered", task.Name)
	}

	ctx := r.ctx
	run := task.Run
	id := r.cron.Schedule(sched, cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		run(ctx)
	}))
	r.entries[task.Name] = id

	r.logger.Info().Str("task", task.Name).Str("schedule", task.Schedule).Msg("Task registered")

	return nil
}

// Start begins running tasks in the background
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started || r.stopped {
		return
	}
	r.started = true
	r.cron.Start()

	r.logger.Info().Int("tasks", len(r.entries)).Msg("Runner started")
}

// Stop cancels all timers, cancels the context handed to running tasks and
// waits for them to finish or for ctx to expire.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.cancel()
	done := r.cron.Stop()
	r.mu.Unlock()

	select {
	case <-done.Done():
		r.logger.Info().Msg("Runner stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for running tasks: %w", ctx.Err())
	}
}

// Tasks lists registered tasks by name with their next activation
func (r *Runner) Tasks() []TaskInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]TaskInfo, 0, len(r.entries))
	for name, id := range r.entries {
		e := r.cron.Entry(id)
		out = append(out, TaskInfo{Name: name, NextRun: e.Next, PrevRun: e.Prev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger routes robfig/cron logging through zerolog
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
