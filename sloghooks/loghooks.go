// Package sloghooks reports cache events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/blobcontainer"
)

type Options struct {
	// Sampling for the high-volume events; 0/1 = log all.
	ReadyEvery       uint64
	LedgerErrorEvery uint64
	// Redact container names when they carry tenant data. nil logs them as
	// is; HashName is a ready-made redactor.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	readyCtr  atomic.Uint64
	ledgerCtr atomic.Uint64
}

var _ blobcontainer.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

// HashName returns the first 8 bytes of the name's SHA-256, hex encoded.
func HashName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func (h *Hooks) name(n string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(n)
	}
	return n
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ContainerReady(name string, access blobcontainer.AccessPolicy, created bool) {
	if h.l == nil || !sample(h.opts.ReadyEvery, &h.readyCtr) {
		return
	}
	h.l.Debug("blobcontainer.ready",
		"container", h.name(name),
		"access", access.String(),
		"created", created)
}

func (h *Hooks) ContainerFailed(name, op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("blobcontainer.failed",
		"container", h.name(name),
		"op", op,
		"err", err)
}

func (h *Hooks) TransportFailed(err error) {
	if h.l == nil {
		return
	}
	h.l.Error("blobcontainer.transport_failed", "err", err)
}

func (h *Hooks) LedgerError(name, op string, err error) {
	if h.l == nil || !sample(h.opts.LedgerErrorEvery, &h.ledgerCtr) {
		return
	}
	h.l.Warn("blobcontainer.ledger_error",
		"container", h.name(name),
		"op", op,
		"err", err)
}

func (h *Hooks) HandleDiscarded(name string) {
	if h.l == nil {
		return
	}
	h.l.Info("blobcontainer.handle_discarded", "container", h.name(name))
}
