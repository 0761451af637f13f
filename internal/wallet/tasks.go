package wallet

import (
	"context"
	"sync"
)

// taskRegistry tracks the background goroutine driving each in-flight
// operation, keyed by operation id. Registration and cancellation go through
// the registry so shutdown and per-operation aborts are uniform.
type taskRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{cancels: make(map[string]context.CancelFunc)}
}

// Spawn runs fn in its own goroutine under a context derived from parent.
// The task is deregistered when fn returns. Returns false if the registry
// is closed or the operation id is already running.
func (r *taskRegistry) Spawn(parent context.Context, operationID string, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	if _, exists := r.cancels[operationID]; exists {
		r.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	r.cancels[operationID] = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer r.remove(operationID)
		fn(ctx)
	}()
	return true
}

// Cancel aborts the task for an operation, if one is running.
func (r *taskRegistry) Cancel(operationID string) {
	r.mu.Lock()
	cancel, ok := r.cancels[operationID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

// Running reports whether a task exists for the operation.
func (r *taskRegistry) Running(operationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cancels[operationID]
	return ok
}

func (r *taskRegistry) remove(operationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.cancels[operationID]; ok {
		cancel()
		delete(r.cancels, operationID)
	}
}

// Close cancels every running task and waits for them to finish. No new
// tasks can be spawned afterwards.
func (r *taskRegistry) Close() {
	r.mu.Lock()
	r.closed = true
	for _, cancel := range r.cancels {
		cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
