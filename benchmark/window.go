package benchmark

import "math"

// DefaultWindowSize is the number of recent samples kept for the
// standard deviation.
const DefaultWindowSize = 100

// Window is a fixed capacity FIFO ring of latency samples in microseconds.
// Once full, each new sample overwrites the oldest one.
//
// The write position comes from the window's own count of every sample it
// has ever seen, so it is independent of any aggregate reset.
type Window struct {
	samples []int64
	seen    uint64
}

// NewWindow creates a window holding at most capacity samples. A
// non-positive capacity falls back to DefaultWindowSize.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &Window{samples: make([]int64, capacity)}
}

// Add stores a sample at position seen mod capacity.
func (w *Window) Add(us int64) {
	w.samples[w.seen%uint64(len(w.samples))] = us
	w.seen++
}

// Capacity returns the maximum number of resident samples.
func (w *Window) Capacity() int {
	return len(w.samples)
}

// Len returns the number of resident samples.
func (w *Window) Len() int {
	if w.seen < uint64(len(w.samples)) {
		return int(w.seen)
	}
	return len(w.samples)
}

// Seen returns the number of samples ever added.
func (w *Window) Seen() uint64 {
	return w.seen
}

// Values returns a copy of the resident samples, oldest first.
func (w *Window) Values() []int64 {
	n := w.Len()
	out := make([]int64, n)
	if n < len(w.samples) {
		copy(out, w.samples[:n])
		return out
	}
	head := int(w.seen % uint64(len(w.samples)))
	copy(out, w.samples[head:])
	copy(out[len(w.samples)-head:], w.samples[:head])
	return out
}

// Mean returns the mean of the resident samples, or 0 when empty.
func (w *Window) Mean() float64 {
	n := w.Len()
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range w.samples[:n] {
		sum += float64(v)
	}
	return sum / float64(n)
}

// StdDevAround returns the sample standard deviation (n-1 divisor) of the
// resident samples measured against the supplied mean. Fewer than two
// resident samples yield 0.
func (w *Window) StdDevAround(mean float64) float64 {
	n := w.Len()
	if n < 2 {
		return 0
	}
	var sq float64
	for _, v := range w.samples[:n] {
		d := float64(v) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1))
}
