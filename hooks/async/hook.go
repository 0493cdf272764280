// Package asynchook moves hook delivery off the container creation path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{ReadyEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	containers, _ := blobcontainer.New(blobcontainer.Options{
//	    Dialer: azblob.New(),
//	    Config: cfg,
//	    Hooks:  hooks,
//	})
//
// Events are dropped when the queue is full; Dropped counts them.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/blobcontainer"
)

type Hooks struct {
	inner   blobcontainer.Hooks
	q       chan func()
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ blobcontainer.Hooks = (*Hooks)(nil)

func New(inner blobcontainer.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close delivers queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.q)
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) ContainerReady(name string, access blobcontainer.AccessPolicy, created bool) {
	h.try(func() { h.inner.ContainerReady(name, access, created) })
}
func (h *Hooks) ContainerFailed(name, op string, err error) {
	h.try(func() { h.inner.ContainerFailed(name, op, err) })
}
func (h *Hooks) TransportFailed(err error) { h.try(func() { h.inner.TransportFailed(err) }) }
func (h *Hooks) LedgerError(name, op string, err error) {
	h.try(func() { h.inner.LedgerError(name, op, err) })
}
func (h *Hooks) HandleDiscarded(name string) { h.try(func() { h.inner.HandleDiscarded(name) }) }
