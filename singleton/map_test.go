package singleton

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type box struct{ key, arg string }

func TestMapOneBuildPerKey(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	m := NewMap(func(ctx context.Context, key string, arg string) (*box, error) {
		calls.Add(1)
		<-gate
		return &box{key: key, arg: arg}, nil
	})

	const n = 16
	got := make([]*box, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := m.Get(context.Background(), "k", "a")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			got[i] = b
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("factory calls=%d want 1", calls.Load())
	}
	for i := 1; i < n; i++ {
		if got[i] != got[0] {
			t.Fatalf("caller %d got a different value", i)
		}
	}

	// later argument is ignored for a known key
	b, err := m.Get(context.Background(), "k", "other")
	if err != nil || b.arg != "a" {
		t.Fatalf("Get with other arg: b=%+v err=%v", b, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("factory ran again for a cached key")
	}
}

func TestMapDistinctKeysDoNotBlockEachOther(t *testing.T) {
	slow := make(chan struct{})
	m := NewMap(func(ctx context.Context, key string, _ struct{}) (string, error) {
		if key == "slow" {
			<-slow
		}
		return key, nil
	})
	defer close(slow)

	go func() { _, _ = m.Get(context.Background(), "slow", struct{}{}) }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := m.Get(ctx, "fast", struct{}{})
	if err != nil || v != "fast" {
		t.Fatalf("fast key blocked by slow key: v=%q err=%v", v, err)
	}
}

func TestMapFailureLeavesKeyAbsent(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	m := NewMap(func(ctx context.Context, key string, _ int) (int, error) {
		if calls.Add(1) == 1 {
			return 0, boom
		}
		return 5, nil
	})
	ctx := context.Background()

	if _, err := m.Get(ctx, "k", 0); !errors.Is(err, boom) {
		t.Fatalf("first Get err=%v want boom", err)
	}
	if _, ok := m.Load("k"); ok {
		t.Fatalf("failed key must stay absent")
	}
	if v, err := m.Get(ctx, "k", 0); err != nil || v != 5 {
		t.Fatalf("retry v=%d err=%v", v, err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len=%d want 1", m.Len())
	}
}

func TestMapLeaderCancellationLetsFollowersRetry(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	m := NewMap(func(ctx context.Context, key string, _ int) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 9, nil
	})

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := m.Get(leaderCtx, "k", 0)
		leaderErr <- err
	}()
	<-started

	followerVal := make(chan int, 1)
	go func() {
		v, err := m.Get(context.Background(), "k", 0)
		if err != nil {
			t.Errorf("follower: %v", err)
		}
		followerVal <- v
	}()
	time.Sleep(10 * time.Millisecond)
	cancelLeader()

	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("leader err=%v want canceled", err)
	}
	if v := <-followerVal; v != 9 {
		t.Fatalf("follower v=%d want 9", v)
	}
}

func TestMapCloseDiscardsLateBuilds(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{})
	m := NewMap(func(ctx context.Context, key string, _ int) (string, error) {
		if key == "late" {
			close(started)
			<-gate
		}
		return key, nil
	})
	var discarded atomic.Value
	m.OnDiscard(func(key string, v string) { discarded.Store(v) })

	if _, err := m.Get(context.Background(), "early", 0); err != nil {
		t.Fatalf("Get early: %v", err)
	}

	lateErr := make(chan error, 1)
	go func() {
		_, err := m.Get(context.Background(), "late", 0)
		lateErr <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	held, err := m.Close(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close err=%v want deadline", err)
	}
	if len(held) != 1 || held["early"] != "early" {
		t.Fatalf("Close returned %v", held)
	}

	close(gate)
	if err := <-lateErr; !errors.Is(err, ErrClosed) {
		t.Fatalf("late Get err=%v want ErrClosed", err)
	}
	if discarded.Load() != "late" {
		t.Fatalf("late value was not discarded")
	}
	if _, err := m.Get(context.Background(), "early", 0); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after Close err=%v want ErrClosed", err)
	}
	if again, err := m.Close(context.Background()); again != nil || err != nil {
		t.Fatalf("second Close = %v, %v", again, err)
	}
}

func TestMapContextTypedFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	timeout := fmt.Errorf("GET /assets: %w", context.DeadlineExceeded)
	m := NewMap(func(ctx context.Context, key string, _ int) (int, error) {
		calls.Add(1)
		return 0, timeout
	})

	done := make(chan error, 1)
	go func() {
		_, err := m.Get(context.Background(), "k", 0)
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("err=%v want the build's deadline", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Get did not return; calls=%d", calls.Load())
	}
	if calls.Load() != 1 {
		t.Fatalf("factory calls=%d want 1", calls.Load())
	}
	if _, ok := m.Load("k"); ok {
		t.Fatalf("failed key must stay absent")
	}
}
