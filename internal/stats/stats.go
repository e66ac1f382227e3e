// Package stats holds this router's operational counters: a named set of
// 64 bit counters for the event classes the dispatcher distinguishes.
package stats

import "sync/atomic"

// Counter is a 64 bit counter safe for concurrent increment.
type Counter struct {
	count uint64
}

// Increment adds one to the counter.
func (c *Counter) Increment() {
	atomic.AddUint64(&c.count, 1)
}

// Value returns the counter's current value.
func (c *Counter) Value() uint64 {
	return atomic.LoadUint64(&c.count)
}

// Stats is this router's full set of operational counters.
type Stats struct {
	UpdatesReceived     Counter
	WithdrawsReceived   Counter
	UpdatesPropagated   Counter
	WithdrawsPropagated Counter
	DataForwarded       Counter
	NoRouteReplies      Counter
	MalformedDropped    Counter
}

// New creates a zeroed Stats.
func New() *Stats {
	return &Stats{}
}
