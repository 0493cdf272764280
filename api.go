package blobcontainer

import (
	"context"

	"github.com/unkn0wn-root/blobcontainer/httpclient"
)

// Util hands out container handles by name, creating remote containers on
// first use. Names are case-insensitive. One Util is meant to be shared by
// the whole process; all methods are safe for concurrent use.
type Util interface {
	// Get returns the handle for name, creating the container with Private
	// access if it does not exist.
	Get(ctx context.Context, name string) (*Handle, error)

	// GetWithAccess is Get with an explicit access policy. The policy only
	// applies when this call is the one that builds the handle; for a name
	// that is already cached (or being built) it is ignored.
	GetWithAccess(ctx context.Context, name string, access AccessPolicy) (*Handle, error)

	// Cached returns the handle for name only if it is already built.
	Cached(name string) (*Handle, bool)

	// Len is the number of cached handles.
	Len() int

	// Shutdown tears the cache down: it stops new Gets, waits for handles
	// being built until ctx is done, then releases cached handles, the shared
	// transport and the ledger. Remote containers are left alone.
	Shutdown(ctx context.Context) error

	// Close is Shutdown without a deadline. Close and Shutdown may be called
	// any number of times; resources are released once.
	Close() error
}

// Options configure a Util. Only Dialer is required.
type Options struct {
	Dialer Dialer

	// Config supplies the connection string. nil makes every Get fail with
	// ErrConfigurationMissing.
	Config              Config
	ConnectionStringKey string // "" => DefaultConnectionStringKey

	HTTPClients      HTTPClients         // nil => a private httpclient.Cache, closed with the Util
	Transport        httpclient.Settings // zero fields => httpclient defaults
	TransportFailure TransportFailurePolicy

	Ledger Ledger // nil => always ask the service
	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks
}

func New(opts Options) (Util, error) {
	return newUtil(opts)
}
