// Package fetch memoizes the result of an asynchronous producer for a fixed
// duration, retries transient failures with linear backoff and lets a newer
// request pre-empt the one in flight.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Producer computes a fresh value. It should stop early when ctx ends.
type Producer[T any] func(ctx context.Context) (T, error)

// Controller owns one cache slot and at most one in-flight producer call.
// The zero value is not usable; build one with New.
type Controller[T any] struct {
	opts Options

	mu          sync.Mutex
	value       T
	fetchedAt   time.Time
	hasValue    bool
	invalidated bool
	cancel      context.CancelFunc
	generation  uint64
}

func New[T any](opts Options) *Controller[T] {
	return &Controller[T]{opts: opts.normalized()}
}

// Request returns the cached value while it is younger than CacheDuration.
// Otherwise it cancels any in-flight call, runs produce and stores the result.
func (c *Controller[T]) Request(ctx context.Context, produce Producer[T]) (T, error) {
	var zero T

	c.mu.Lock()
	if c.freshLocked() {
		value := c.value
		c.mu.Unlock()
		c.opts.Observer.Hit(c.opts.Name)
		return value, nil
	}

	if c.cancel != nil {
		c.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.generation++
	gen := c.generation
	c.cancel = cancel
	c.mu.Unlock()

	defer c.release(gen, cancel)
	c.opts.Observer.Miss(c.opts.Name)

	for attempt := 0; ; attempt++ {
		value, err := produce(runCtx)
		if runCtx.Err() != nil || errors.Is(err, context.Canceled) {
			return zero, ErrCanceled
		}

		if err == nil {
			if !c.store(gen, value) {
				return zero, ErrCanceled
			}
			return value, nil
		}

		var permanent *permanentError
		if attempt >= c.opts.RetryAttempts || errors.As(err, &permanent) {
			c.opts.Observer.Failure(c.opts.Name, err)
			return zero, fmt.Errorf("%w: %s after %d attempts: %w", ErrFetchFailed, c.opts.Name, attempt+1, err)
		}

		c.opts.Observer.Retry(c.opts.Name, attempt+1)
		timer := time.NewTimer(c.opts.RetryDelay * time.Duration(attempt+1))
		select {
		case <-runCtx.Done():
			timer.Stop()
			return zero, ErrCanceled
		case <-timer.C:
		}
	}
}

// Invalidate makes the next Request bypass the cache. The stored value stays
// available through Cached.
func (c *Controller[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = true
}

// Cached returns the last stored value regardless of age.
func (c *Controller[T]) Cached() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.hasValue
}

// Reset cancels the in-flight call and empties the slot.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++

	var zero T
	c.value = zero
	c.fetchedAt = time.Time{}
	c.hasValue = false
	c.invalidated = false
}

func (c *Controller[T]) freshLocked() bool {
	if c.opts.DisableCache || !c.hasValue || c.invalidated {
		return false
	}
	return c.opts.Now().Sub(c.fetchedAt) < c.opts.CacheDuration
}

// store writes value unless a newer request or Reset superseded gen.
func (c *Controller[T]) store(gen uint64, value T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		return false
	}
	c.value = value
	c.fetchedAt = c.opts.Now()
	c.hasValue = true
	c.invalidated = false
	return true
}

func (c *Controller[T]) release(gen uint64, cancel context.CancelFunc) {
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen {
		c.cancel = nil
	}
}
