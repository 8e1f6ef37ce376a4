package history

import "sync/atomic"

// Clock is the monotonic logical clock that stamps entries.
//
// Seq values are strictly increasing and never reused, so ordering by Seq
// is insertion order without any wall-clock involvement.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start. A store reopened on
// an existing file uses it to continue from its highest seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
