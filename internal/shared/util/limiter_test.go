package util

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestLimiterRegistry(t *testing.T) {
	// 100 tokens/sec, burst 10, ttl 100ms
	reg := NewLimiterRegistry(100, 10, 100*time.Millisecond)
	defer reg.Close()

	l1 := reg.Get("1.1.1.1")
	l2 := reg.Get("2.2.2.2")

	if l1 == l2 {
		t.Error("expected different limiters for different clients")
	}

	if reg.Get("1.1.1.1") != l1 {
		t.Error("expected same limiter for same client")
	}

	time.Sleep(250 * time.Millisecond)
	// Cleanup should have removed the old limiters
	fresh := reg.Get("1.1.1.1")
	if fresh == l1 {
		t.Error("expected old limiter to be cleaned up and replaced")
	}
}

func TestLimiter_NonPositiveRateDisablesLimiting(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow(1) {
			t.Fatalf("expected unlimited limiter to allow request %d", i)
		}
	}
}

func TestLimiterRegistry_CloseIsIdempotent(t *testing.T) {
	reg := NewLimiterRegistry(1, 1, time.Second)
	reg.Close()
	reg.Close()
}
