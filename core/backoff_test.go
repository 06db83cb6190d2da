package core

import (
	"testing"
	"time"
)

func TestExponentialBackoff_Next(t *testing.T) {
	backoff := ExponentialBackoff{Base: 100 * time.Millisecond, Max: 500 * time.Millisecond}

	if got := backoff.Next(1); got != 100*time.Millisecond {
		t.Fatalf("attempt 1: expected 100ms, got %v", got)
	}
	if got := backoff.Next(2); got != 200*time.Millisecond {
		t.Fatalf("attempt 2: expected 200ms, got %v", got)
	}
	if got := backoff.Next(10); got != 500*time.Millisecond {
		t.Fatalf("attempt 10: expected cap, got %v", got)
	}
	if got := backoff.Next(0); got != 100*time.Millisecond {
		t.Fatalf("attempt 0: expected clamp to first attempt, got %v", got)
	}
}

func TestExponentialBackoff_LargeAttemptsSaturateAtCap(t *testing.T) {
	backoff := ExponentialBackoff{Base: 200 * time.Millisecond, Max: 5 * time.Second}
	for _, attempt := range []int{37, 62, 63, 64, 1 << 20} {
		if got := backoff.Next(attempt); got != 5*time.Second {
			t.Fatalf("attempt %d: expected cap, got %v", attempt, got)
		}
	}
	uncapped := ExponentialBackoff{Base: 200 * time.Millisecond}
	if got := uncapped.Next(64); got != 200*time.Millisecond {
		t.Fatalf("uncapped overflow: expected base, got %v", got)
	}
}

func TestExponentialBackoff_ZeroBaseUsesDefault(t *testing.T) {
	backoff := ExponentialBackoff{}
	if got := backoff.Next(1); got != 100*time.Millisecond {
		t.Fatalf("expected default base, got %v", got)
	}
}
