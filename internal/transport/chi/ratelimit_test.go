package chi

import (
	"testing"
	"time"
)

func TestRateLimiter_PerKeyBuckets(t *testing.T) {
	l := NewRateLimiter(1, 2)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 must pass")
	}
	if l.Allow("a") {
		t.Error("third request within the same second must be limited")
	}
	if !l.Allow("b") {
		t.Error("b has its own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Error("a token must refill after one second")
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(5 * time.Minute)
	l.Allow("b")
	now = now.Add(6 * time.Minute)

	if n := l.Prune(); n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if _, ok := l.limiters["b"]; !ok {
		t.Error("b is still fresh")
	}
}
