// Package scheduler runs batches of independent tasks under a concurrency
// cap, with optional per-task timeouts, an optional shared deadline for the
// whole batch, and cooperative cancellation.
//
// The scheduler never preempts work. A task that outlives its timeout, the
// batch deadline, or a cancellation keeps running in the background; its
// eventual result is discarded. Callers that need prompt teardown should
// honor the context passed to their task.
package scheduler
