// Package backoff provides the retry delay policy shared by the node
// RPC client and the third-party REST clients.
package backoff

import "time"

// DefaultBase is the delay before the first retry.
const DefaultBase = time.Second

// Policy maps a retry attempt index to a wait duration: base * 2^attempt,
// attempt 0 being the first retry. The policy is pure and never sleeps;
// callers suspend between attempts.
type Policy struct {
	Base time.Duration
}

// Delay returns the wait duration before retry number attempt.
func (p Policy) Delay(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = DefaultBase
	}
	if attempt < 0 {
		attempt = 0
	}
	// Cap the shift so pathological attempt counts cannot overflow.
	if attempt > 30 {
		attempt = 30
	}
	return base << uint(attempt)
}
