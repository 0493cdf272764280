package httpclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestGetReturnsOneClientPerID(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	var wg sync.WaitGroup
	got := make([]*http.Client, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cl, err := c.Get(ctx, "blob", Settings{})
			if err != nil {
				t.Errorf("Get: %v", err)
			}
			got[i] = cl
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(got); i++ {
		if got[i] != got[0] {
			t.Fatalf("client %d differs", i)
		}
	}

	other, err := c.Get(ctx, "queue", Settings{})
	if err != nil {
		t.Fatalf("Get other: %v", err)
	}
	if other == got[0] {
		t.Fatalf("different ids must not share a client")
	}
}

func TestSettingsApplied(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })

	cl, err := c.Get(context.Background(), "blob", Settings{
		MaxConnsPerHost: 7,
		ConnLifetime:    time.Minute,
		Timeout:         3 * time.Second,
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cl.Timeout != 3*time.Second {
		t.Fatalf("Timeout=%v", cl.Timeout)
	}
	tr, ok := cl.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport %T", cl.Transport)
	}
	if tr.MaxConnsPerHost != 7 || tr.MaxIdleConnsPerHost != 7 || tr.IdleConnTimeout != time.Minute {
		t.Fatalf("transport not configured: conns=%d idle=%d lifetime=%v",
			tr.MaxConnsPerHost, tr.MaxIdleConnsPerHost, tr.IdleConnTimeout)
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := Settings{}.WithDefaults()
	if s.MaxConnsPerHost != DefaultMaxConnsPerHost || s.ConnLifetime != DefaultConnLifetime || s.Timeout != DefaultTimeout {
		t.Fatalf("defaults not applied: %+v", s)
	}
}

func TestRemoveRebuilds(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	first, _ := c.Get(ctx, "blob", Settings{})
	if err := c.Remove("blob"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := c.Remove("never-added"); err != nil {
		t.Fatalf("Remove unknown: %v", err)
	}
	second, _ := c.Get(ctx, "blob", Settings{})
	if first == second {
		t.Fatalf("Remove did not drop the client")
	}
}

func TestEmptyIDRejected(t *testing.T) {
	c := New()
	t.Cleanup(func() { _ = c.Close() })
	if _, err := c.Get(context.Background(), "", Settings{}); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("err=%v want ErrEmptyID", err)
	}
}
