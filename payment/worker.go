package payment

import (
	"context"
	"sync"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
)

type EventProcessor interface {
	ProcessEvent(ctx context.Context, event *stripe.Event) error
}

// WorkerPool processes submitted events on a fixed number of goroutines.
type WorkerPool struct {
	tasks     chan *stripe.Event
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	ctx       context.Context
	logger    *zap.Logger
	processor EventProcessor
}

func NewWorkerPool(ctx context.Context, size, queue int, processor EventProcessor, logger *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}

	wp := &WorkerPool{
		tasks:     make(chan *stripe.Event, queue),
		ctx:       ctx,
		logger:    logger,
		processor: processor,
	}

	wp.wg.Add(size)
	for i := 0; i < size; i++ {
		go wp.worker()
	}

	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for event := range wp.tasks {
		if err := wp.processor.ProcessEvent(wp.ctx, event); err != nil {
			wp.logger.Error("Failed to process event",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID))
		}
	}
}

// Submit queues event, blocking while the queue is full. It reports false and
// drops the event once the pool is shut down.
func (wp *WorkerPool) Submit(event *stripe.Event) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		wp.logger.Warn("Dropping event submitted after shutdown",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
		return false
	}
	wp.tasks <- event
	return true
}

// Shutdown stops accepting events and waits for queued ones to finish.
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if !wp.closed {
		wp.closed = true
		close(wp.tasks)
	}
	wp.mu.Unlock()

	wp.wg.Wait()
}
