package interp

import "sync/atomic"

// Clock is a monotonic logical clock. Every channel-queue write is stamped
// with a strictly increasing seq number from this clock, which gives the
// runtime_ordered adapter a deterministic first-come-first-served order and
// gives trace events a total order.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the tick loop's single-writer design means only one goroutine
// typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
