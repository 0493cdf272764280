// Package azblob is the Azure Blob Storage Dialer for blobcontainer.
package azblob

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/unkn0wn-root/blobcontainer"
)

var ErrNilTransport = errors.New("azblob dialer: nil transport config")

type Dialer struct {
	metadata map[string]*string
}

var _ blobcontainer.Dialer = (*Dialer)(nil)

type Option func(*Dialer)

// WithMetadata sets metadata on containers this dialer's clients create.
func WithMetadata(md map[string]string) Option {
	return func(d *Dialer) {
		d.metadata = make(map[string]*string, len(md))
		for k, v := range md {
			d.metadata[k] = to.Ptr(v)
		}
	}
}

func New(opts ...Option) *Dialer {
	d := &Dialer{}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Dial builds a container client that sends every request through the
// shared HTTP client of tc. It performs no I/O.
func (d *Dialer) Dial(_ context.Context, connectionString, name string, tc *blobcontainer.TransportConfig) (blobcontainer.Container, error) {
	if tc == nil || tc.HTTPClient() == nil {
		return nil, ErrNilTransport
	}
	opts := &container.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Transport: tc.HTTPClient(),
		},
	}
	c, err := container.NewClientFromConnectionString(connectionString, name, opts)
	if err != nil {
		return nil, fmt.Errorf("azblob dialer: %w", err)
	}
	return &Container{client: c, metadata: d.metadata}, nil
}

// Container implements blobcontainer.Container on top of the SDK client.
type Container struct {
	client   *container.Client
	metadata map[string]*string
}

var _ blobcontainer.Container = (*Container)(nil)

// Client exposes the SDK client for blob operations.
func (c *Container) Client() *container.Client { return c.client }

func (c *Container) Exists(ctx context.Context) (bool, error) {
	_, err := c.client.GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		return false, nil
	}
	return false, err
}

// Create creates the container. Losing a creation race to another process
// is not an error.
func (c *Container) Create(ctx context.Context, access blobcontainer.AccessPolicy) error {
	opts := &container.CreateOptions{
		Access:   publicAccess(access),
		Metadata: c.metadata,
	}
	_, err := c.client.Create(ctx, opts)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return err
	}
	return nil
}

// publicAccess maps Private to nil, which the service reads as no public access.
func publicAccess(a blobcontainer.AccessPolicy) *container.PublicAccessType {
	switch a {
	case blobcontainer.BlobPublic:
		return to.Ptr(container.PublicAccessTypeBlob)
	case blobcontainer.ContainerPublic:
		return to.Ptr(container.PublicAccessTypeContainer)
	default:
		return nil
	}
}
