package blobcontainer

// Hooks are callbacks for cache events worth counting or alerting on.
// They run on the creation path, so implementations must not block;
// wrap slow ones with hooks/async.
type Hooks interface {
	// A handle was built and cached. created reports whether this process
	// created the remote container (false when it already existed).
	ContainerReady(name string, access AccessPolicy, created bool)

	// Building a handle failed; the key stays absent.
	// op ∈ {"config", "dial", "exists", "create"}
	ContainerFailed(name, op string, err error)

	// Acquiring the shared HTTP client failed.
	TransportFailed(err error)

	// The ledger could not be read or written; the cache fell back to the
	// remote existence check (op="known") or skipped recording (op="remember").
	LedgerError(name, op string, err error)

	// A handle finished building after teardown began and was dropped.
	HandleDiscarded(name string)
}

type NopHooks struct{}

func (NopHooks) ContainerReady(string, AccessPolicy, bool) {}
func (NopHooks) ContainerFailed(string, string, error)     {}
func (NopHooks) TransportFailed(error)                     {}
func (NopHooks) LedgerError(string, string, error)         {}
func (NopHooks) HandleDiscarded(string)                    {}
