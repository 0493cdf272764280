// Package codec serializes ledger records. Any Codec[V] works; JSON is the
// default, Msgpack and CBOR are more compact, Protobuf suits stores shared
// with non-Go readers, and Limit guards Decode against oversized input.
package codec

// Codec converts V to and from bytes.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
