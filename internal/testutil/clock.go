// Package testutil provides deterministic helpers for tests.
package testutil

import (
	"sync"
	"time"
)

// FixedClock returns preset times, advancing by a fixed step on each call.
//
// Run reports embed a start timestamp; golden tests inject a FixedClock so
// the same suite produces byte-identical report output across runs.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu   sync.Mutex
	next time.Time
	step time.Duration
}

// NewFixedClock creates a clock whose first Now() returns start, with each
// subsequent call advanced by step.
func NewFixedClock(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{next: start, step: step}
}

// Now returns the next timestamp in the sequence.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}
