package blobcontainer

import (
	"context"
	"net/http"

	"github.com/unkn0wn-root/blobcontainer/httpclient"
	"github.com/unkn0wn-root/blobcontainer/singleton"
)

// TransportID is the identifier under which the cache asks its HTTPClients
// provider for the shared client.
const TransportID = "blobcontainer"

// HTTPClients provides pooled HTTP clients by identifier.
// *httpclient.Cache satisfies it.
type HTTPClients interface {
	Get(ctx context.Context, id string, s httpclient.Settings) (*http.Client, error)
	Remove(id string) error
}

var _ HTTPClients = (*httpclient.Cache)(nil)

// TransportConfig is the transport every container client of one cache
// shares. It is immutable.
type TransportConfig struct {
	settings httpclient.Settings
	client   *http.Client
}

// NewTransportConfig wraps a client. The cache builds its own; this is for
// dialer implementations and their tests.
func NewTransportConfig(s httpclient.Settings, client *http.Client) *TransportConfig {
	return &TransportConfig{settings: s.WithDefaults(), client: client}
}

func (t *TransportConfig) Settings() httpclient.Settings { return t.settings }

// HTTPClient is the pooled client. It satisfies the azcore Transporter
// interface, so dialers can plug it into SDK client options directly.
func (t *TransportConfig) HTTPClient() *http.Client { return t.client }

// TransportFailurePolicy decides what a failed transport build leaves behind.
type TransportFailurePolicy int

const (
	// RetryTransport forgets the failure; the next Get builds again.
	RetryTransport TransportFailurePolicy = iota
	// CacheTransportFailure keeps the failure; every later Get returns it.
	CacheTransportFailure
)

func newTransportCell(clients HTTPClients, s httpclient.Settings, p TransportFailurePolicy) *singleton.Cell[*TransportConfig] {
	s = s.WithDefaults()
	build := func(ctx context.Context) (*TransportConfig, error) {
		cl, err := clients.Get(ctx, TransportID, s)
		if err != nil {
			return nil, err
		}
		return NewTransportConfig(s, cl), nil
	}
	var opts []singleton.CellOption
	if p == CacheTransportFailure {
		opts = append(opts, singleton.KeepError())
	}
	return singleton.NewCell(build, opts...)
}
