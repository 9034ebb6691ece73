package worker

import (
	"errors"

	"github.com/google/uuid"
)

// Item is a unit of deferred analysis work.
type Item struct {
	NotificationID uuid.UUID
	Text           string
}

// ErrQueueFull is returned by Enqueue when the queue cannot accept more work.
var ErrQueueFull = errors.New("analysis queue is full")

// Queue hands analysis work items from the service to the worker pool.
// Delivery is at-least-once; consumers must treat redelivered items as no-ops.
type Queue interface {
	Enqueue(item Item) error
	Items() <-chan Item
	Close()
}

// MemoryQueue is a bounded in-process Queue backed by a buffered channel.
type MemoryQueue struct {
	items chan Item
}

// NewMemoryQueue creates a MemoryQueue with the given capacity.
func NewMemoryQueue(capacity int) *MemoryQueue {
	return &MemoryQueue{items: make(chan Item, capacity)}
}

// Enqueue adds a work item without blocking. It returns ErrQueueFull when the
// buffer is exhausted; the notification then stays pending until resubmitted.
func (q *MemoryQueue) Enqueue(item Item) error {
	select {
	case q.items <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Items exposes the consumption side of the queue.
func (q *MemoryQueue) Items() <-chan Item {
	return q.items
}

// Close stops the queue. Enqueue must not be called afterwards.
func (q *MemoryQueue) Close() {
	close(q.items)
}
