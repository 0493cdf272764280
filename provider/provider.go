// Package provider defines the byte store behind the container ledger.
//
// Implementations must return from Get exactly the bytes passed to Set for
// the same key. The keyspace "ledger:<ns>:" is owned by the ledger; entries
// written there by anything else are treated as corrupt and deleted.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs, safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl. ttl <= 0 means the store's default lifetime.
	// ok=false reports a write the store dropped under pressure.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Del removes key. Missing keys are not an error.
	Del(ctx context.Context, key string) error

	Close(ctx context.Context) error
}
