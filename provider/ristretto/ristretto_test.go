package ristretto

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p, err := New(Small())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	if ok, err := p.Set(ctx, "ledger:acct:assets", []byte("v1"), time.Hour); !ok || err != nil {
		t.Fatalf("Set = %v, %v", ok, err)
	}
	b, ok, err := p.Get(ctx, "ledger:acct:assets")
	if err != nil || !ok || string(b) != "v1" {
		t.Fatalf("Get = %q, %v, %v", b, ok, err)
	}
	_ = p.Del(ctx, "ledger:acct:assets")
	if _, ok, _ := p.Get(ctx, "ledger:acct:assets"); ok {
		t.Fatalf("entry survived Del")
	}
}

func TestInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err=%v want ErrInvalidConfig", err)
	}
}
