// Package ledger remembers which blob containers are known to exist.
//
// A cache with a ledger skips the remote existence check for names verified
// within MaxAge, which matters for short-lived processes that would otherwise
// issue one GetProperties call per container on every start. Entries are
// framed with a magic header and the verification time; anything that does not
// decode cleanly is deleted and reported as a miss.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/blobcontainer"
	"github.com/unkn0wn-root/blobcontainer/codec"
	"github.com/unkn0wn-root/blobcontainer/internal/wire"
	"github.com/unkn0wn-root/blobcontainer/provider"
)

const (
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "ledger:"
)

var (
	ErrNoNamespace = errors.New("ledger: namespace is required")
	ErrNoProvider  = errors.New("ledger: provider is required")
)

// Record is one verified container.
type Record struct {
	Name       string    `json:"name" msgpack:"name" cbor:"name"`
	Access     string    `json:"access" msgpack:"access" cbor:"access"`
	VerifiedAt time.Time `json:"verified_at" msgpack:"verified_at" cbor:"verified_at"`
}

type Options struct {
	// Namespace separates ledgers sharing one store, typically the storage
	// account name.
	Namespace string
	Provider  provider.Provider
	Codec     codec.Codec[Record] // default codec.JSON[Record]

	// TTL is passed to the provider on every write.
	TTL time.Duration
	// MaxAge bounds how old a record may be and still count, for stores that
	// ignore TTL. Defaults to TTL.
	MaxAge time.Duration

	Logger blobcontainer.Logger
	Now    func() time.Time
}

type Ledger struct {
	ns     string
	store  provider.Provider
	codec  codec.Codec[Record]
	ttl    time.Duration
	maxAge time.Duration
	log    blobcontainer.Logger
	now    func() time.Time
}

var _ blobcontainer.Ledger = (*Ledger)(nil)

func New(opts Options) (*Ledger, error) {
	if opts.Namespace == "" {
		return nil, ErrNoNamespace
	}
	if opts.Provider == nil {
		return nil, ErrNoProvider
	}
	l := &Ledger{
		ns:    opts.Namespace,
		store: opts.Provider,
		codec: opts.Codec,
		ttl:   opts.TTL,
		log:   opts.Logger,
		now:   opts.Now,
	}
	if l.codec == nil {
		l.codec = codec.JSON[Record]{}
	}
	if l.ttl <= 0 {
		l.ttl = DefaultTTL
	}
	l.maxAge = opts.MaxAge
	if l.maxAge <= 0 {
		l.maxAge = l.ttl
	}
	if l.log == nil {
		l.log = blobcontainer.NopLogger{}
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l, nil
}

func (l *Ledger) key(name string) string {
	return keyPrefix + l.ns + ":" + name
}

// Known reports whether name was verified within MaxAge. Store errors are
// returned; unusable entries are deleted and reported as a miss.
func (l *Ledger) Known(ctx context.Context, name string) (bool, error) {
	_, ok, err := l.Lookup(ctx, name)
	return ok, err
}

// Lookup returns the record for name.
func (l *Ledger) Lookup(ctx context.Context, name string) (Record, bool, error) {
	k := l.key(name)
	raw, ok, err := l.store.Get(ctx, k)
	if err != nil || !ok {
		return Record{}, false, err
	}

	verifiedAt, payload, err := wire.DecodeEntry(raw)
	if err != nil {
		l.heal(ctx, k, name, "corrupt entry")
		return Record{}, false, nil
	}
	if l.now().Sub(verifiedAt) > l.maxAge {
		l.heal(ctx, k, name, "stale entry")
		return Record{}, false, nil
	}
	rec, err := l.codec.Decode(payload)
	if err != nil {
		l.heal(ctx, k, name, "undecodable entry")
		return Record{}, false, nil
	}
	if rec.Name != name {
		l.heal(ctx, k, name, "entry for another container")
		return Record{}, false, nil
	}
	rec.VerifiedAt = verifiedAt
	return rec, true, nil
}

// Remember records name as verified now.
func (l *Ledger) Remember(ctx context.Context, name string, access blobcontainer.AccessPolicy) error {
	now := l.now()
	payload, err := l.codec.Encode(Record{Name: name, Access: access.String(), VerifiedAt: now})
	if err != nil {
		return err
	}
	ok, err := l.store.Set(ctx, l.key(name), wire.EncodeEntry(now, payload), l.ttl)
	if err != nil {
		return err
	}
	if !ok {
		l.log.Debug("ledger write dropped by store", blobcontainer.Fields{"container": name})
	}
	return nil
}

// Forget drops name, e.g. after the container was deleted out of band.
func (l *Ledger) Forget(ctx context.Context, name string) error {
	return l.store.Del(ctx, l.key(name))
}

// Close closes the provider.
func (l *Ledger) Close(ctx context.Context) error {
	return l.store.Close(ctx)
}

func (l *Ledger) heal(ctx context.Context, key, name, why string) {
	f := blobcontainer.Fields{"container": name, "reason": why}
	if err := l.store.Del(ctx, key); err != nil {
		f["err"] = err
		l.log.Warn("ledger self-heal failed", f)
		return
	}
	l.log.Debug("ledger entry dropped", f)
}
