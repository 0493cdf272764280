// Package wire frames ledger entries so that foreign or truncated values in a
// shared store are recognized and dropped instead of decoded.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version     byte = 1
	kindLedger  byte = 1
	headerBytes      = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("blobcontainer: corrupt ledger entry")
	magic4     = [...]byte{'B', 'L', 'C', 'L'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | kind(1) | verifiedAt(i64 be, unix nanos) | plen(u32 be) | payload(plen)
//
// verifiedAt sits outside the payload so staleness can be judged without
// decoding it.
func EncodeEntry(verifiedAt time.Time, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(headerBytes + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindLedger)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(verifiedAt.UnixNano()))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

func DecodeEntry(b []byte) (verifiedAt time.Time, payload []byte, err error) {
	if len(b) < headerBytes || !hasMagic(b) || b[4] != version || b[5] != kindLedger {
		return time.Time{}, nil, ErrCorrupt
	}
	off := 6

	nanos := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	plen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if plen != len(b)-off { // exact: trailing bytes mean a foreign writer
		return time.Time{}, nil, ErrCorrupt
	}

	return time.Unix(0, nanos), b[off:], nil
}
