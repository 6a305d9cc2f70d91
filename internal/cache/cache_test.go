package cache

import (
	"sync"
	"testing"
	"time"
)

func TestCache_Compute(t *testing.T) {
	c := New[uint64, string]()
	calls := 0
	build := func(s string) func() string {
		return func() string { calls++; return s }
	}

	if got := c.Compute(1, 0, build("rev1")); got != "rev1" {
		t.Fatalf("unexpected value %q", got)
	}
	if got := c.Compute(1, 0, build("other")); got != "rev1" {
		t.Fatalf("expected cached value, got %q", got)
	}
	if calls != 1 {
		t.Fatalf("expected 1 build, got %d", calls)
	}

	if got := c.Compute(2, 0, build("rev2")); got != "rev2" {
		t.Fatalf("unexpected value %q", got)
	}
	// only the latest key is kept
	if got := c.Compute(1, 0, build("rev1-again")); got != "rev1-again" {
		t.Fatalf("older key should have been dropped, got %q", got)
	}
	if calls != 3 {
		t.Fatalf("expected 3 builds, got %d", calls)
	}
}

func TestCache_TTL_Expiry(t *testing.T) {
	c := New[uint64, string]()

	base := time.Now()
	now = func() time.Time { return base }
	t.Cleanup(func() { now = time.Now })

	calls := 0
	build := func() string { calls++; return "view" }

	c.Compute(7, time.Second, build)
	c.Compute(7, time.Second, build)
	if calls != 1 {
		t.Fatalf("expected hit before expiry, got %d builds", calls)
	}

	base = base.Add(2 * time.Second)
	c.Compute(7, time.Second, build)
	if calls != 2 {
		t.Fatalf("expected rebuild after expiry, got %d builds", calls)
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < 100; r++ {
				key := r % 3
				if got := c.Compute(key, time.Minute, func() int { return key * 10 }); got != key*10 {
					t.Errorf("key %d: got %d", key, got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
