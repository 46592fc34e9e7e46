// Package runner supervises asynchronous lead runs. Stage endpoints
// acknowledge immediately, so the work itself is handed to the runner, which
// tracks every run from submission to a terminal state. Nothing is
// fire-and-forget: a panic or error inside a run ends up in the registry
// where it can be inspected, not in a swallowed goroutine.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/stratusdb/leadflow/core"
	"github.com/stratusdb/leadflow/logging"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// ErrRunNotFound is returned for run IDs the registry does not know.
var ErrRunNotFound = errors.New("run not found")

// DefaultMaxConcurrent bounds how many runs execute at once. Queued runs
// stay pending until a slot frees up.
const DefaultMaxConcurrent = 8

// Snapshot is a point-in-time view of a run.
type Snapshot struct {
	ID         string
	Stage      string
	Status     Status
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

type run struct {
	id     string
	stage  string
	status Status
	err    error

	startedAt  time.Time
	finishedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Options configures a Runner.
type Options struct {
	MaxConcurrent int
	Logger        logging.Logger
}

// Runner executes submitted work in supervised goroutines with bounded
// concurrency and keeps a registry of all runs, terminal ones included.
type Runner struct {
	mu     sync.Mutex
	runs   map[string]*run
	sem    chan struct{}
	wg     sync.WaitGroup
	logger logging.Logger
}

// New creates a Runner.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxConcurrent: DefaultMaxConcurrent,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}

	return &Runner{
		runs:   make(map[string]*run),
		sem:    make(chan struct{}, opts.MaxConcurrent),
		logger: opts.Logger,
	}
}

// Submit registers a run and starts it in the background, returning its ID
// immediately. The run's context is detached from the caller's cancellation
// (the HTTP request that triggered it ends long before the run does) but
// keeps its values, and can be canceled through Cancel.
func (r *Runner) Submit(ctx context.Context, stage string, fn func(ctx context.Context, runID string) error) string {
	runID := core.NewID()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	rn := &run{
		id:     runID,
		stage:  stage,
		status: StatusPending,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.runs[runID] = rn
	r.mu.Unlock()

	r.logger.Info("runner.submit", "run", runID, "stage", stage)

	r.wg.Add(1)
	go r.execute(runCtx, rn, fn)

	return runID
}

func (r *Runner) execute(ctx context.Context, rn *run, fn func(ctx context.Context, runID string) error) {
	defer r.wg.Done()
	defer close(rn.done)

	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		r.finish(rn, StatusCanceled, ctx.Err())
		return
	}

	r.mu.Lock()
	rn.status = StatusRunning
	rn.startedAt = time.Now()
	r.mu.Unlock()

	var err error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("run panicked: %v", rec)
				r.logger.Error("runner.run.panic", "run", rn.id, "stage", rn.stage, "stack", string(debug.Stack()))
			}
		}()
		err = fn(ctx, rn.id)
	}()

	switch {
	case err == nil:
		r.finish(rn, StatusSucceeded, nil)
	case errors.Is(err, context.Canceled):
		r.finish(rn, StatusCanceled, err)
	default:
		r.finish(rn, StatusFailed, err)
	}
}

func (r *Runner) finish(rn *run, status Status, err error) {
	r.mu.Lock()
	rn.status = status
	rn.err = err
	rn.finishedAt = time.Now()
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("runner.run.finished", "run", rn.id, "stage", rn.stage, "status", string(status), "error", err.Error())
		return
	}

	r.logger.Info("runner.run.finished", "run", rn.id, "stage", rn.stage, "status", string(status))
}

// Status returns a snapshot of the run.
func (r *Runner) Status(runID string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runs[runID]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	return Snapshot{
		ID:         rn.id,
		Stage:      rn.stage,
		Status:     rn.status,
		Err:        rn.err,
		StartedAt:  rn.startedAt,
		FinishedAt: rn.finishedAt,
	}, nil
}

// Wait blocks until the run reaches a terminal state or ctx expires, then
// returns the run's error, if any.
func (r *Runner) Wait(ctx context.Context, runID string) error {
	r.mu.Lock()
	rn, ok := r.runs[runID]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	select {
	case <-rn.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return rn.err
}

// Cancel requests cancellation of a run. Canceling an unknown or already
// finished run is a no-op error.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	rn, ok := r.runs[runID]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rn.cancel()

	return nil
}

// Active returns the number of runs not yet in a terminal state.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, rn := range r.runs {
		if rn.status == StatusPending || rn.status == StatusRunning {
			n++
		}
	}

	return n
}

// Shutdown waits for all submitted runs to finish or ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
