package scheduler

import (
	"fmt"
	"sync"

	"github.com/vk/stagehand/internal/diag"
)

// ErrQueueFull marks an enqueue attempt against a queue at capacity.
var ErrQueueFull = diag.Sentinel(diag.CodeQueueFull, "scheduler: queue capacity exceeded")

// Queue is a bounded, thread-safe FIFO. Its length never exceeds the
// capacity it was constructed with.
type Queue struct {
	mu       sync.Mutex
	items    []any
	capacity int
}

// NewQueue creates a queue holding at most capacity items. Capacity must be
// positive.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		panic("scheduler: queue capacity must be positive")
	}
	return &Queue{capacity: capacity}
}

// Enqueue appends item, failing with ErrQueueFull when the queue is at
// capacity.
func (q *Queue) Enqueue(item any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		return fmt.Errorf("capacity %d: %w", q.capacity, ErrQueueFull)
	}
	q.items = append(q.items, item)
	return nil
}

// Dequeue removes and returns the oldest item. The second return is false
// when the queue is empty.
func (q *Queue) Dequeue() (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len reports the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
