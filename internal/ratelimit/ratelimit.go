// Package ratelimit implements a sliding-window admission limiter for
// the shared Bitcoin node connection. Admission is a single
// prune-then-maybe-append critical section so concurrent callers cannot
// both be admitted into the last remaining slot.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultKey is used when callers share one global quota.
const DefaultKey = "bitcoind"

// Limiter admits at most Limit calls per key within any trailing Window.
type Limiter struct {
	Limit  int
	Window time.Duration
	Clock  func() time.Time

	mu      sync.Mutex
	windows map[string][]time.Time
}

// New returns a limiter with the given per-window limit. Non-positive
// arguments fall back to the defaults from the node client (60 per 60s).
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		Limit:   limit,
		Window:  window,
		windows: make(map[string][]time.Time),
	}
}

// Admit prunes timestamps older than the window for key, then admits the
// call and records its timestamp if the remaining count is under the
// limit. A rejected call mutates nothing beyond the prune.
func (l *Limiter) Admit(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.windows == nil {
		l.windows = make(map[string][]time.Time)
	}

	entries := l.windows[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.Limit {
		l.windows[key] = kept
		return false
	}

	l.windows[key] = append(kept, now)
	return true
}

// InFlight reports the number of admissions currently inside the window
// for key. Used by the status handler.
func (l *Limiter) InFlight(key string) int {
	cutoff := l.now().Add(-l.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, ts := range l.windows[key] {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}
