package queue

import (
	"context"
	"sync"

	"github.com/yanqian/flowdash/internal/domain/preview"
)

// Handler executes one job.
type Handler func(ctx context.Context, name string, payload map[string]any)

// HandlerQueue supports setting a handler for job delivery.
type HandlerQueue interface {
	preview.JobQueue
	SetHandler(handler Handler)
	Close() error
}

// ImmediateQueue runs each job in its own goroutine as soon as it is enqueued.
type ImmediateQueue struct {
	mu      sync.RWMutex
	handler Handler
	wg      sync.WaitGroup
}

// NewImmediateQueue constructs the queue.
func NewImmediateQueue(handler Handler) *ImmediateQueue {
	return &ImmediateQueue{handler: handler}
}

// SetHandler replaces the handler used for queued jobs.
func (q *ImmediateQueue) SetHandler(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = handler
}

// Enqueue invokes the handler asynchronously.
func (q *ImmediateQueue) Enqueue(ctx context.Context, name string, payload map[string]any) error {
	q.mu.RLock()
	handler := q.handler
	q.mu.RUnlock()
	if handler == nil {
		return nil
	}
	if payload == nil {
		payload = map[string]any{}
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		handler(ctx, name, payload)
	}()
	return nil
}

// Close waits for running jobs to finish.
func (q *ImmediateQueue) Close() error {
	q.wg.Wait()
	return nil
}

var _ HandlerQueue = (*ImmediateQueue)(nil)
