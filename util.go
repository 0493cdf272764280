package blobcontainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/blobcontainer/httpclient"
	"github.com/unkn0wn-root/blobcontainer/internal/util"
	"github.com/unkn0wn-root/blobcontainer/singleton"
)

type blobUtil struct {
	dialer  Dialer
	cfg     Config
	connKey string
	clients HTTPClients
	owned   *httpclient.Cache // set when clients was created here
	ledger  Ledger
	log     Logger
	hooks   Hooks

	transport *singleton.Cell[*TransportConfig]
	connStr   *singleton.Cell[string]
	handles   *singleton.Map[*Handle, AccessPolicy]

	closeOnce sync.Once
	closeErr  error
}

func newUtil(opts Options) (*blobUtil, error) {
	if opts.Dialer == nil {
		return nil, fmt.Errorf("blobcontainer: dialer is required")
	}
	if opts.TransportFailure != RetryTransport && opts.TransportFailure != CacheTransportFailure {
		return nil, fmt.Errorf("blobcontainer: unknown transport failure policy %d", opts.TransportFailure)
	}

	u := &blobUtil{
		dialer: opts.Dialer,
		cfg:    opts.Config,
		ledger: opts.Ledger,
	}
	u.connKey = coalesce(opts.ConnectionStringKey, DefaultConnectionStringKey)
	u.log = coalesce[Logger](opts.Logger, NopLogger{})
	u.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})

	if opts.HTTPClients != nil {
		u.clients = opts.HTTPClients
	} else {
		u.owned = httpclient.New()
		u.clients = u.owned
	}

	u.transport = newTransportCell(u.clients, opts.Transport, opts.TransportFailure)
	u.connStr = singleton.NewCell(u.connectionString)
	u.handles = singleton.NewMap(u.create)
	u.handles.OnDiscard(u.discard)
	return u, nil
}

func (u *blobUtil) Get(ctx context.Context, name string) (*Handle, error) {
	return u.GetWithAccess(ctx, name, Private)
}

func (u *blobUtil) GetWithAccess(ctx context.Context, name string, access AccessPolicy) (*Handle, error) {
	key, err := util.NormalizeContainerName(name)
	if err != nil {
		return nil, &GetError{Container: name, Op: "validate", Kind: ErrInvalidName, Err: err}
	}
	if !access.Valid() {
		return nil, &GetError{Container: key, Op: "validate", Kind: ErrInvalidName,
			Err: fmt.Errorf("unknown access policy %d", int(access))}
	}
	if h, ok := u.handles.Load(key); ok {
		return h, nil
	}
	h, err := u.handles.Get(ctx, key, access)
	if err != nil {
		if errors.Is(err, singleton.ErrClosed) {
			return nil, &GetError{Container: key, Op: "get", Kind: ErrClosed}
		}
		var ge *GetError
		if errors.As(err, &ge) {
			return nil, err
		}
		// context ends while waiting, factory panics
		return nil, &GetError{Container: key, Op: "get", Err: err}
	}
	return h, nil
}

func (u *blobUtil) Cached(name string) (*Handle, bool) {
	key, err := util.NormalizeContainerName(name)
	if err != nil {
		return nil, false
	}
	return u.handles.Load(key)
}

func (u *blobUtil) Len() int { return u.handles.Len() }

// create runs at most once at a time per name.
func (u *blobUtil) create(ctx context.Context, name string, access AccessPolicy) (*Handle, error) {
	tc, err := u.transport.Get(ctx)
	if err != nil {
		if errors.Is(err, singleton.ErrClosed) {
			return nil, err
		}
		if !isCanceled(ctx, err) {
			u.hooks.TransportFailed(err)
			u.log.Error("blob transport unavailable", Fields{"container": name, "err": err})
		}
		return nil, u.fail(ctx, name, "transport", ErrTransportUnavailable, err)
	}

	conn, err := u.connStr.Get(ctx)
	if err != nil {
		if errors.Is(err, singleton.ErrClosed) {
			return nil, err
		}
		return nil, u.fail(ctx, name, "config", ErrConfigurationMissing, err)
	}

	u.log.Info("connecting to blob container", Fields{"container": name})
	c, err := u.dialer.Dial(ctx, conn, name, tc)
	if err != nil {
		return nil, u.fail(ctx, name, "dial", ErrRemoteCall, err)
	}
	h := &Handle{name: name, access: access, container: c}

	if u.known(ctx, name) {
		u.hooks.ContainerReady(name, access, false)
		return h, nil
	}

	exists, err := c.Exists(ctx)
	if err != nil {
		return nil, u.fail(ctx, name, "exists", ErrRemoteCall, err)
	}
	if !exists {
		u.log.Info("blob container did not exist, creating", Fields{"container": name, "access": access.String()})
		if err := c.Create(ctx, access); err != nil {
			return nil, u.fail(ctx, name, "create", ErrRemoteCall, err)
		}
		h.created = true
	}

	u.remember(ctx, name, access)
	u.hooks.ContainerReady(name, access, h.created)
	return h, nil
}

func (u *blobUtil) connectionString(context.Context) (string, error) {
	if u.cfg == nil {
		return "", fmt.Errorf("%w: no config provider for %q", ErrConfigurationMissing, u.connKey)
	}
	s, err := u.cfg.GetRequiredString(u.connKey)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%w: %q is empty", ErrConfigurationMissing, u.connKey)
	}
	return s, nil
}

func (u *blobUtil) known(ctx context.Context, name string) bool {
	if u.ledger == nil {
		return false
	}
	ok, err := u.ledger.Known(ctx, name)
	if err != nil {
		u.hooks.LedgerError(name, "known", err)
		u.log.Warn("ledger lookup failed; checking service", Fields{"container": name, "err": err})
		return false
	}
	return ok
}

func (u *blobUtil) remember(ctx context.Context, name string, access AccessPolicy) {
	if u.ledger == nil {
		return
	}
	if err := u.ledger.Remember(ctx, name, access); err != nil {
		u.hooks.LedgerError(name, "remember", err)
		u.log.Warn("ledger write failed", Fields{"container": name, "err": err})
	}
}

func (u *blobUtil) fail(ctx context.Context, name, op string, kind, err error) error {
	if isCanceled(ctx, err) {
		return &GetError{Container: name, Op: op, Err: err}
	}
	if op != "transport" {
		u.hooks.ContainerFailed(name, op, err)
		u.log.Error("blob container unavailable", Fields{"container": name, "op": op, "err": err})
	}
	return &GetError{Container: name, Op: op, Kind: kind, Err: err}
}

func (u *blobUtil) discard(name string, h *Handle) {
	u.hooks.HandleDiscarded(name)
	if err := closeHandle(h); err != nil {
		u.log.Warn("closing discarded handle failed", Fields{"container": name, "err": err})
	}
}

func (u *blobUtil) Close() error { return u.Shutdown(context.Background()) }

func (u *blobUtil) Shutdown(ctx context.Context) error {
	u.closeOnce.Do(func() {
		u.closeErr = u.shutdown(ctx)
	})
	return u.closeErr
}

func (u *blobUtil) shutdown(ctx context.Context) error {
	var errs []error

	held, err := u.handles.Close(ctx)
	if err != nil {
		u.log.Warn("shutdown: handles still being built were abandoned", Fields{"err": err})
		errs = append(errs, err)
	}

	var g errgroup.Group
	for name, h := range held {
		name, h := name, h
		g.Go(func() error {
			if err := closeHandle(h); err != nil {
				return fmt.Errorf("close %q: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	// a transport still being acquired is released by its build once done
	if err := u.transport.Close(ctx, u.releaseTransport); err != nil {
		errs = append(errs, fmt.Errorf("release transport: %w", err))
	}
	_ = u.connStr.Close(ctx, nil)

	if u.ledger != nil {
		if err := u.ledger.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close ledger: %w", err))
		}
	}
	if u.owned != nil {
		if err := u.owned.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	u.log.Debug("blob container cache closed", Fields{"released": len(held)})
	return errors.Join(errs...)
}

func (u *blobUtil) releaseTransport(*TransportConfig) error {
	err := u.clients.Remove(TransportID)
	if err != nil {
		u.log.Warn("releasing shared transport failed", Fields{"err": err})
	}
	return err
}

func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func closeHandle(h *Handle) error {
	if c, ok := h.container.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// isCanceled reports whether err comes from ctx ending rather than from the
// remote side.
func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
