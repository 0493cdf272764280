package singleton

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// KeyedFactory builds the value for key. arg is the argument of the call
// that started the build; arguments of concurrent or later calls for the same
// key are not seen.
type KeyedFactory[V, A any] func(ctx context.Context, key string, arg A) (V, error)

// Map is a memoizing map with at most one build in flight per key.
// Builds for different keys run in parallel. A failed build leaves its key
// absent so the next Get builds again.
type Map[V, A any] struct {
	factory KeyedFactory[V, A]

	values sync.Map // key -> V, finished builds only
	group  singleflight.Group

	mu       sync.Mutex // guards closed, inflight.Add and stores into values
	closed   bool
	inflight sync.WaitGroup

	// discard receives values whose build finished after Close.
	discard func(key string, v V)
}

func NewMap[V, A any](f KeyedFactory[V, A]) *Map[V, A] {
	return &Map[V, A]{factory: f}
}

// OnDiscard registers a callback for values built after Close began.
// Must be called before the map is shared.
func (m *Map[V, A]) OnDiscard(fn func(key string, v V)) { m.discard = fn }

// Load is the fast path: it never blocks and never builds.
func (m *Map[V, A]) Load(key string) (V, bool) {
	v, ok := m.values.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// Get returns the value for key, building it with arg on a miss.
// A caller whose ctx ends while waiting returns ctx.Err() and leaves the
// build running for the others.
func (m *Map[V, A]) Get(ctx context.Context, key string, arg A) (V, error) {
	var zero V
	for {
		if v, ok := m.Load(key); ok {
			return v, nil
		}
		if m.isClosed() {
			return zero, ErrClosed
		}

		ch := m.group.DoChan(key, func() (any, error) {
			return m.build(ctx, key, arg)
		})

		select {
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(V), nil
			}
			// the leader's ctx ended; build again under ours
			var ab *abortedError
			if errors.As(res.Err, &ab) {
				if ctx.Err() == nil {
					continue
				}
				return zero, ab.err
			}
			return zero, res.Err
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

func (m *Map[V, A]) build(ctx context.Context, key string, arg A) (v V, err error) {
	// double check: a previous flight may have stored it after our Load
	if v, ok := m.Load(key); ok {
		return v, nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return v, ErrClosed
	}
	m.inflight.Add(1)
	m.mu.Unlock()
	defer m.inflight.Done()

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Key: key, Value: r}
		}
	}()

	v, err = m.factory(ctx, key, arg)
	if err != nil {
		if ctx.Err() != nil {
			err = &abortedError{err: err}
		}
		return v, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		if m.discard != nil {
			m.discard(key, v)
		}
		var zero V
		return zero, ErrClosed
	}
	m.values.Store(key, v)
	m.mu.Unlock()
	return v, nil
}

// Delete forgets a finished entry; the next Get for key builds again.
// A build in flight for key is not affected.
func (m *Map[V, A]) Delete(key string) {
	m.mu.Lock()
	m.values.Delete(key)
	m.mu.Unlock()
}

// Len counts finished entries.
func (m *Map[V, A]) Len() int {
	n := 0
	m.values.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (m *Map[V, A]) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close stops new builds, waits for in-flight ones until ctx is done, then
// empties the map and returns what it held. Later calls return nothing.
func (m *Map[V, A]) Close(ctx context.Context) (map[string]V, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil
	}
	m.closed = true
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		// late builds are handed to discard instead of the table
		err = ctx.Err()
	}

	out := make(map[string]V)
	m.values.Range(func(k, v any) bool {
		out[k.(string)] = v.(V)
		m.values.Delete(k)
		return true
	})
	return out, err
}

// PanicError reports a factory panic.
type PanicError struct {
	Key   string
	Value any
}

func (e *PanicError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("singleton: factory panicked: %v", e.Value)
	}
	return fmt.Sprintf("singleton: factory for %q panicked: %v", e.Key, e.Value)
}
