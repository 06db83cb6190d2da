package core

import "time"

// Backoff computes the delay before the next poll or retry attempt.
type Backoff interface {
	Next(attempt int) time.Duration
}

// ExponentialBackoff grows delays by powers of two, capped at Max.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

// Next returns the delay for the given attempt (1-based). Attempts large
// enough to overflow the doubling saturate at Max.
func (b ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := b.Base
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	// base <= Max>>shift guarantees base<<shift fits and stays under Max.
	if shift := uint(attempt - 1); shift < 63 && (b.Max <= 0 || base <= b.Max>>shift) {
		return base << shift
	}
	if b.Max > 0 {
		return b.Max
	}
	return base
}

// DefaultBackoff returns the polling policy used while waiting for a fresh
// deployment to come up.
func DefaultBackoff() Backoff {
	return ExponentialBackoff{
		Base: 200 * time.Millisecond,
		Max:  5 * time.Second,
	}
}
