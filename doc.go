// Package blobcontainer caches blob storage container clients by name.
//
// Get returns a ready to use handle for a container, creating the remote
// container on first access if it does not exist. Concurrent first calls for
// the same name share one client and one existence-check/create sequence;
// calls for different names never wait on each other. Cached handles are
// served without locks or remote calls.
//
// Components:
//   - Dialer: builds a Container client (see dialer/azblob).
//   - HTTPClients: pooled HTTP clients by identifier (see httpclient). The
//     cache asks for one client, wraps it in an immutable TransportConfig and
//     shares it between all containers.
//   - Config: supplies the connection string (see config/viperconfig).
//   - Ledger: optional memory of containers known to exist (see ledger).
//
// Names are case-insensitive: "Assets", "assets" and "ASSETS" share one
// handle. The access policy passed with the first Get for a name is the one
// used to create the container; later policies for that name are ignored.
//
// Usage:
//
//	u, _ := blobcontainer.New(blobcontainer.Options{
//	    Dialer: azblob.New(),
//	    Config: blobcontainer.StaticConfig{blobcontainer.DefaultConnectionStringKey: conn},
//	})
//	defer u.Close()
//	h, err := u.Get(ctx, "Assets")
//	client := h.Container().(*azblob.Container).Client()
package blobcontainer
