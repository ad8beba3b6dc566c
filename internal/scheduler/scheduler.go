package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vk/stagehand/internal/ctxlog"
	"github.com/vk/stagehand/internal/diag"
)

// Stable failure sentinels. Wrapped errors carry the task index; use
// errors.Is to classify.
var (
	// ErrTaskTimeout marks a single task that exceeded its per-task cap.
	ErrTaskTimeout = diag.Sentinel(diag.CodeTaskTimeout, "scheduler: task timed out")
	// ErrDeadlineExceeded marks a batch whose shared time budget ran out.
	ErrDeadlineExceeded = diag.Sentinel(diag.CodeDeadlineExceeded, "scheduler: shared deadline exceeded")
	// ErrAborted marks a batch whose cancellation handle was signaled.
	ErrAborted = diag.Sentinel(diag.CodeAborted, "scheduler: batch aborted")
)

// Task is a unit of work identified only by its position in the input slice.
type Task func(ctx context.Context) (any, error)

// Result reports the settled outcome of one task. Result i of a Run call
// always corresponds to input task i, independent of completion order.
type Result struct {
	Value    any
	Err      error
	Duration time.Duration
	TimedOut bool
	// Started distinguishes a task that ran (and possibly failed) from one
	// that was never scheduled because the batch failed first.
	Started bool
}

// Options configures a single Run call.
type Options struct {
	// Concurrency caps tasks in flight. 1 serializes; <=0 means unbounded.
	Concurrency int
	// Timeout caps each individual task. Zero disables the per-task cap.
	Timeout time.Duration
	// Deadline is a shared wall-clock budget for the whole batch, measured
	// from the moment Run is called. Zero disables it.
	Deadline time.Duration
	// Cancel, when signaled, stops scheduling of not-yet-started tasks and
	// fails the call with ErrAborted. In-flight tasks are not interrupted.
	Cancel *Cancel
}

// Cancel is a cooperative, signal-once cancellation handle that may be shared
// by the caller and the batch it governs.
type Cancel struct {
	ch   chan struct{}
	once sync.Once
}

// NewCancel creates an unsignaled cancellation handle.
func NewCancel() *Cancel {
	return &Cancel{ch: make(chan struct{})}
}

// Signal requests cancellation. Safe to call from any goroutine, any number
// of times.
func (c *Cancel) Signal() {
	c.once.Do(func() { close(c.ch) })
}

// Done returns a channel closed once the handle has been signaled.
func (c *Cancel) Done() <-chan struct{} { return c.ch }

type taskDone struct {
	idx int
	res Result
}

// Run executes tasks under opts and returns one Result per task, index
// aligned with the input.
//
// The first failure (task error, per-task timeout, shared deadline, or
// cancellation) fails the whole call and stops scheduling of unstarted
// tasks. On an ordinary task failure Run still waits for tasks already in
// flight to settle, so the returned results reflect everything that actually
// ran. On a shared-deadline or cancellation failure Run returns immediately;
// in-flight tasks finish in the background and their results are discarded.
func Run(ctx context.Context, tasks []Task, opts Options) ([]Result, error) {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}
	logger := ctxlog.FromContext(ctx)

	batchCtx := ctx
	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	limit := opts.Concurrency
	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}

	var cancelDone <-chan struct{}
	if opts.Cancel != nil {
		cancelDone = opts.Cancel.Done()
	}

	doneCh := make(chan taskDone, len(tasks))
	next, inFlight := 0, 0
	var firstErr error

	for {
		for firstErr == nil && next < len(tasks) && inFlight < limit {
			if err := pendingFailure(ctx, batchCtx, cancelDone, opts.Deadline); err != nil {
				return results, err
			}
			idx := next
			next++
			inFlight++
			go runOne(batchCtx, idx, tasks[idx], opts.Timeout, doneCh)
		}

		if inFlight == 0 {
			return results, firstErr
		}

		select {
		case d := <-doneCh:
			inFlight--
			results[d.idx] = d.res
			if d.res.Err != nil && firstErr == nil {
				firstErr = fmt.Errorf("task %d: %w", d.idx, d.res.Err)
				logger.Debug("batch failed, draining in-flight tasks",
					"failedIndex", d.idx, "inFlight", inFlight)
			}
		case <-batchCtx.Done():
			// Shared deadline or caller context; abandon in-flight work.
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			return results, fmt.Errorf("after %v: %w", opts.Deadline, ErrDeadlineExceeded)
		case <-cancelDone:
			return results, ErrAborted
		}
	}
}

// pendingFailure checks the abort conditions that must win over scheduling
// another task.
func pendingFailure(ctx, batchCtx context.Context, cancelDone <-chan struct{}, deadline time.Duration) error {
	select {
	case <-cancelDone:
		return ErrAborted
	default:
	}
	select {
	case <-batchCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("after %v: %w", deadline, ErrDeadlineExceeded)
	default:
	}
	return nil
}

// runOne supervises a single task: it races the task against its per-task
// timer and reports whichever settles first. The loser is abandoned, not
// killed; taskCtx is cancelled so cooperative tasks can bail out early.
func runOne(ctx context.Context, idx int, task Task, timeout time.Duration, doneCh chan<- taskDone) {
	start := time.Now()

	taskCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out := make(chan Result, 1)
	go func() {
		v, err := task(taskCtx)
		out <- Result{Value: v, Err: err, Duration: time.Since(start), Started: true}
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case r := <-out:
		doneCh <- taskDone{idx: idx, res: r}
	case <-timer:
		doneCh <- taskDone{idx: idx, res: Result{
			Err:      ErrTaskTimeout,
			Duration: time.Since(start),
			TimedOut: true,
			Started:  true,
		}}
	}
}
