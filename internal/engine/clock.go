package engine

import "sync/atomic"

// Clock numbers synchronization cycles within a process.
//
// The first cycle is seq 1. The counter is not persisted; a restart begins
// again at 1, like the rest of the engine's state.
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
