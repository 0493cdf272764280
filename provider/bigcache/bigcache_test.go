package bigcache

import (
	"context"
	"testing"
	"time"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Minute, HardMaxCacheSizeMB: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	if _, ok, err := p.Get(ctx, "ledger:acct:assets"); ok || err != nil {
		t.Fatalf("miss = %v, %v", ok, err)
	}
	if ok, err := p.Set(ctx, "ledger:acct:assets", []byte("v1"), 0); !ok || err != nil {
		t.Fatalf("Set = %v, %v", ok, err)
	}
	b, ok, err := p.Get(ctx, "ledger:acct:assets")
	if err != nil || !ok || string(b) != "v1" {
		t.Fatalf("Get = %q, %v, %v", b, ok, err)
	}
	if err := p.Del(ctx, "ledger:acct:assets"); err != nil {
		t.Fatal(err)
	}
	if err := p.Del(ctx, "ledger:acct:assets"); err != nil {
		t.Fatalf("deleting a missing key: %v", err)
	}
}
