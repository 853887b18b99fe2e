// Package profiler - Timing and memory introspection collaborators.
package profiler

import "time"

// Clock is a monotonic microsecond time source.
type Clock interface {
	NowMicroseconds() int64
}

// MonotonicClock reads Go's monotonic clock relative to its creation time.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock creates a clock whose zero is the moment of creation.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// NowMicroseconds returns the microseconds elapsed since the clock was created.
func (c *MonotonicClock) NowMicroseconds() int64 {
	return time.Since(c.start).Microseconds()
}
