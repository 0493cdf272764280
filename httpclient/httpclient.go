// Package httpclient hands out pooled *http.Client values keyed by an
// identifier, so every component asking for the same identifier shares one
// connection pool.
package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/unkn0wn-root/blobcontainer/singleton"
)

const (
	DefaultMaxConnsPerHost = 100
	DefaultConnLifetime    = 10 * time.Minute
	DefaultTimeout         = 100 * time.Second
)

var ErrEmptyID = errors.New("httpclient: empty identifier")

// Settings are the pooling parameters of one client.
// Zero fields fall back to the package defaults.
type Settings struct {
	MaxConnsPerHost int           // also caps idle connections per host
	ConnLifetime    time.Duration // how long an idle pooled connection is kept
	Timeout         time.Duration // whole-request timeout
}

// WithDefaults fills zero fields.
func (s Settings) WithDefaults() Settings {
	if s.MaxConnsPerHost <= 0 {
		s.MaxConnsPerHost = DefaultMaxConnsPerHost
	}
	if s.ConnLifetime <= 0 {
		s.ConnLifetime = DefaultConnLifetime
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	return s
}

// Cache is safe for concurrent use. The first Get for an identifier decides
// its Settings.
type Cache struct {
	clients *singleton.Map[*http.Client, Settings]
}

func New() *Cache {
	return &Cache{clients: singleton.NewMap(build)}
}

// Get returns the client for id, building it on first use.
func (c *Cache) Get(ctx context.Context, id string, s Settings) (*http.Client, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	return c.clients.Get(ctx, id, s)
}

// Remove forgets id and closes its idle connections. Unknown ids are a no-op.
func (c *Cache) Remove(id string) error {
	if v, ok := c.clients.Load(id); ok {
		c.clients.Delete(id)
		v.CloseIdleConnections()
	}
	return nil
}

// Close removes every client. The cache is unusable afterwards.
func (c *Cache) Close() error {
	held, err := c.clients.Close(context.Background())
	for _, cl := range held {
		cl.CloseIdleConnections()
	}
	return err
}

func build(_ context.Context, _ string, s Settings) (*http.Client, error) {
	s = s.WithDefaults()
	return &http.Client{
		Transport: newTransport(s),
		Timeout:   s.Timeout,
	}, nil
}

func newTransport(s Settings) *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		base = &http.Transport{
			Proxy:       http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		}
	}
	t := base.Clone()
	t.MaxConnsPerHost = s.MaxConnsPerHost
	t.MaxIdleConnsPerHost = s.MaxConnsPerHost
	if t.MaxIdleConns < s.MaxConnsPerHost {
		t.MaxIdleConns = s.MaxConnsPerHost
	}
	t.IdleConnTimeout = s.ConnLifetime
	if t.TLSHandshakeTimeout == 0 {
		t.TLSHandshakeTimeout = 10 * time.Second
	}
	return t
}
