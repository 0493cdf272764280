package blobcontainer

import "context"

// Container is a client bound to one remote container.
// Implementations may also implement io.Closer; Close is then called when
// the owning cache is torn down.
type Container interface {
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context, access AccessPolicy) error
}

// Dialer builds container clients. Dial must not perform remote calls that
// change state; the cache decides whether to create the container.
// See dialer/azblob for the Azure implementation.
type Dialer interface {
	Dial(ctx context.Context, connectionString, name string, tc *TransportConfig) (Container, error)
}

// Ledger remembers containers known to exist, letting a cold cache skip the
// remote existence check. See the ledger package.
type Ledger interface {
	Known(ctx context.Context, name string) (bool, error)
	Remember(ctx context.Context, name string, access AccessPolicy) error
	Close(ctx context.Context) error
}

// Handle is a cached, ready to use container client.
type Handle struct {
	name      string
	access    AccessPolicy
	created   bool
	container Container
}

// Name is the normalized (lowercase) container name.
func (h *Handle) Name() string { return h.name }

// Access is the policy requested when the handle was first built. It is the
// policy the container was created with only if Created reports true.
func (h *Handle) Access() AccessPolicy { return h.access }

// Created reports whether this process created the remote container.
func (h *Handle) Created() bool { return h.created }

// Container returns the underlying client; type-assert to the dialer's type
// (e.g. *azblob.Container) for SDK access.
func (h *Handle) Container() Container { return h.container }
