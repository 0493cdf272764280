package singleton

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Cell and Map after Close.
var ErrClosed = errors.New("singleton: closed")

// Factory builds the value of a Cell. ctx belongs to the caller that started
// the build.
type Factory[T any] func(ctx context.Context) (T, error)

// future is one build attempt. done is closed once val/err are set.
type future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func (f *future[T]) ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Cell is a lazily built, compute-once value.
// Concurrent callers during a build share the same in-flight future; once
// built, Get is a single atomic load.
type Cell[T any] struct {
	factory   Factory[T]
	keepError bool

	cur atomic.Pointer[future[T]]

	mu     sync.Mutex
	closed bool
	late   func(T) error // set when Close stopped waiting for a build
}

type CellOption func(*cellConfig)

type cellConfig struct {
	keepError bool
}

// KeepError makes a failed build sticky: later Gets return the same error
// instead of building again. Builds whose leader's context ended are never
// kept.
func KeepError() CellOption {
	return func(c *cellConfig) { c.keepError = true }
}

func NewCell[T any](f Factory[T], opts ...CellOption) *Cell[T] {
	var cfg cellConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &Cell[T]{factory: f, keepError: cfg.keepError}
}

// Get returns the value, building it on first use.
func (c *Cell[T]) Get(ctx context.Context) (T, error) {
	var zero T
	for {
		if f := c.cur.Load(); f != nil && f.ready() && f.err == nil {
			return f.val, nil // fast path
		}

		f, leader, err := c.acquire()
		if err != nil {
			return zero, err
		}
		if leader {
			c.build(ctx, f)
		}

		select {
		case <-f.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		if f.err == nil {
			return f.val, nil
		}
		// the leader gave up on its own context; we may still have time
		var ab *abortedError
		if errors.As(f.err, &ab) {
			if ctx.Err() == nil {
				continue
			}
			return zero, ab.err
		}
		return zero, f.err
	}
}

// acquire returns the future to wait on, installing a fresh one when there
// is none or the previous attempt failed and may be retried.
func (c *Cell[T]) acquire() (*future[T], bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false, ErrClosed
	}
	if f := c.cur.Load(); f != nil {
		if !f.ready() || f.err == nil || (c.keepError && !isAborted(f.err)) {
			return f, false, nil
		}
	}
	f := &future[T]{done: make(chan struct{})}
	c.cur.Store(f)
	return f, true, nil
}

func (c *Cell[T]) build(ctx context.Context, f *future[T]) {
	val, err := c.run(ctx)
	if err != nil && ctx.Err() != nil {
		err = &abortedError{err: err}
	}

	c.mu.Lock()
	f.val, f.err = val, err
	release := c.late
	c.late = nil
	close(f.done)
	c.mu.Unlock()

	// Close gave up waiting for this build
	if release != nil && err == nil {
		_ = release(val)
	}
}

func (c *Cell[T]) run(ctx context.Context) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return c.factory(ctx)
}

// Peek reports the built value without triggering a build.
func (c *Cell[T]) Peek() (T, bool) {
	var zero T
	f := c.cur.Load()
	if f == nil || !f.ready() || f.err != nil {
		return zero, false
	}
	return f.val, true
}

// Close forbids further builds and hands a successfully built value to
// release. An in-flight build is awaited until ctx is done; if it finishes
// later, its value goes to release from the build and Close returns
// ctx.Err(). Only the first call does any work; later calls return nil.
func (c *Cell[T]) Close(ctx context.Context, release func(T) error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	f := c.cur.Load()
	c.mu.Unlock()

	if f == nil {
		return nil
	}
	select {
	case <-f.done:
	case <-ctx.Done():
		c.mu.Lock()
		if !f.ready() {
			c.late = release
			c.mu.Unlock()
			return ctx.Err()
		}
		c.mu.Unlock()
	}
	if f.err != nil || release == nil {
		return nil
	}
	return release(f.val)
}

// abortedError marks a build that failed after its leader's context ended.
// Waiters with a live context build again; errors from builds whose leader
// was still live are never retried, whatever they wrap.
type abortedError struct{ err error }

func (e *abortedError) Error() string { return e.err.Error() }
func (e *abortedError) Unwrap() error { return e.err }

func isAborted(err error) bool {
	var ab *abortedError
	return errors.As(err, &ab)
}
