package wire

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

func mustDecode(t *testing.T, b []byte) (time.Time, []byte) {
	t.Helper()
	at, p, err := DecodeEntry(b)
	if err != nil {
		t.Fatalf("DecodeEntry error: %v", err)
	}
	return at, p
}

func TestEntryEmptyAndNonEmpty(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC)
	for _, payload := range [][]byte{nil, []byte(`{"name":"assets"}`)} {
		enc := EncodeEntry(at, payload)
		gotAt, p := mustDecode(t, enc)
		if !gotAt.Equal(at) {
			t.Fatalf("verifiedAt mismatch: got %v want %v", gotAt, at)
		}
		if !bytes.Equal(p, payload) {
			t.Fatalf("payload mismatch: got %q want %q", p, payload)
		}
	}
}

func TestEntryRejectsTrailingBytes(t *testing.T) {
	enc := EncodeEntry(time.Now(), []byte("x"))
	enc = append(enc, 0)
	if _, _, err := DecodeEntry(enc); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt for trailing byte, got %v", err)
	}
}

func TestEntryRejectsTruncation(t *testing.T) {
	enc := EncodeEntry(time.Now(), []byte("payload"))
	for n := 0; n < len(enc); n++ {
		if _, _, err := DecodeEntry(enc[:n]); err != ErrCorrupt {
			t.Fatalf("len %d: expected ErrCorrupt, got %v", n, err)
		}
	}
}

func TestEntryRejectsForeignBytes(t *testing.T) {
	cases := map[string][]byte{
		"plain":    []byte("not-a-ledger-entry-at-all"),
		"badver":   func() []byte { b := EncodeEntry(time.Now(), nil); b[4] = 9; return b }(),
		"badkind":  func() []byte { b := EncodeEntry(time.Now(), nil); b[5] = 7; return b }(),
		"hugeplen": func() []byte { b := EncodeEntry(time.Now(), nil); binary.BigEndian.PutUint32(b[14:], 1<<31); return b }(),
	}
	for name, b := range cases {
		if _, _, err := DecodeEntry(b); err != ErrCorrupt {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}
