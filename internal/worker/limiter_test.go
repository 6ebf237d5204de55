package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_DefaultBurstClamped(t *testing.T) {
	l := NewLimiter(10, -1)
	if l.defaultBurst != 5 {
		t.Errorf("expected burst clamped to 5, got %d", l.defaultBurst)
	}
}

func TestLimiter_WaitAcrossDomains(t *testing.T) {
	l := NewLimiter(100, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "http://example.com/doc"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := l.Wait(ctx, "http://other.org/doc"); err != nil {
		t.Errorf("wait on second domain failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	l := NewLimiter(100, 1)

	start := time.Now()
	if err := l.WaitWithDelay(context.Background(), "http://example.com", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", elapsed)
	}
}

func TestLimiter_DelayHonorsCancellation(t *testing.T) {
	l := NewLimiter(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.WaitWithDelay(ctx, "http://example.com", time.Minute); err == nil {
		t.Error("expected context cancellation error")
	}
}

func TestLimiter_PerDomainOverride(t *testing.T) {
	l := NewLimiter(1, 1)
	l.SetDomainRate("fast.example.com", 1000, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx, "http://fast.example.com/x"); err != nil {
			t.Fatalf("override domain should not throttle: %v", err)
		}
	}
}
