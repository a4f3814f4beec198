// Package dataflow runs items through small concurrent stages connected by
// channels: From feeds a Stream, Map transforms it with a worker pool and
// retries, ForEach drains it.
package dataflow

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Stream is a read-only channel of items.
type Stream <-chan interface{}

// ItemError carries an item whose stage function kept failing.
type ItemError struct {
	Item interface{}
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %v: %v", e.Item, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// From creates a stream from a slice of items.
func From(ctx context.Context, items ...interface{}) Stream {
	out := make(chan interface{}, len(items))
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case out <- item:
			}
		}
	}()
	return out
}

// Map applies fn to every item using the configured number of workers.
// Output order is not preserved when more than one worker runs.
func Map(ctx context.Context, input Stream, fn func(context.Context, interface{}) (interface{}, error), opts ...Option) Stream {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	out := make(chan interface{}, cfg.bufferSize)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}
				res, err := attempt(ctx, cfg, func() (interface{}, error) { return fn(ctx, msg) })
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					if cfg.errorHandler != nil && cfg.errorHandler(err) {
						continue
					}
					res = &ItemError{Item: msg, Err: err}
				}
				select {
				case <-ctx.Done():
					return
				case out <- res:
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// attempt runs call once plus up to cfg.maxRetries retries.
func attempt(ctx context.Context, cfg *config, call func() (interface{}, error)) (interface{}, error) {
	res, err := call()
	for i := 1; err != nil && i <= cfg.maxRetries; i++ {
		if cfg.backoff != nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.backoff(i)):
			}
		}
		res, err = call()
	}
	return res, err
}

// ForEach calls fn for every item until the stream closes. An *ItemError in
// the stream, or an error from fn that the error handler does not accept,
// stops the loop and is returned.
func ForEach(ctx context.Context, input Stream, fn func(interface{}) error, opts ...Option) error {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}
				var err error
				if ie, failed := msg.(*ItemError); failed {
					err = ie
				} else {
					_, err = attempt(ctx, cfg, func() (interface{}, error) { return nil, fn(msg) })
				}
				if err == nil {
					continue
				}
				if cfg.errorHandler != nil && cfg.errorHandler(err) {
					continue
				}
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
