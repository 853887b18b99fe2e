package benchmark

import (
	"math"

	"github.com/pkg/errors"
)

// MinSentinel is the minimum reported by a tracker with no samples since
// its last reset.
const MinSentinel int64 = math.MaxInt64

// ErrNegativeLatency is returned for samples below zero. The sample is
// dropped.
var ErrNegativeLatency = errors.New("latency must be non-negative")

// Lifetime is a snapshot of the aggregates accumulated since the last reset.
type Lifetime struct {
	Count int64   `json:"count"`
	Sum   int64   `json:"sum_us"`
	Min   int64   `json:"min_us"`
	Max   int64   `json:"max_us"`
	Mean  float64 `json:"mean_us"`
}

// Tracker keeps two kinds of latency statistics side by side:
//
//   - lifetime aggregates (count, sum, min, max, mean) covering every sample
//     since the last Reset;
//   - a Window of the most recent samples that feeds StdDev and survives
//     Reset untouched.
//
// StdDev measures the resident window against the lifetime mean, not the
// window's own mean. Right after a Reset the window still holds samples from
// before it, so StdDev mixes pre-reset samples with a post-reset mean. This
// is a known quirk and reported numbers depend on it.
//
// Tracker is not safe for concurrent use.
type Tracker struct {
	count  int64
	sum    int64
	min    int64
	max    int64
	window *Window
}

// NewTracker creates a tracker whose window holds windowSize samples.
func NewTracker(windowSize int) *Tracker {
	t := &Tracker{window: NewWindow(windowSize)}
	t.Reset()
	return t
}

// Reset clears the lifetime aggregates. The window is not cleared.
func (t *Tracker) Reset() {
	t.count = 0
	t.sum = 0
	t.min = MinSentinel
	t.max = 0
}

// RecordSample adds one latency measurement in microseconds.
func (t *Tracker) RecordSample(us int64) error {
	if us < 0 {
		return errors.Wrapf(ErrNegativeLatency, "got %d us", us)
	}
	t.count++
	t.sum += us
	if us < t.min {
		t.min = us
	}
	if us > t.max {
		t.max = us
	}
	t.window.Add(us)
	return nil
}

// Count returns the number of samples since the last reset.
func (t *Tracker) Count() int64 { return t.count }

// Sum returns the latency sum since the last reset.
func (t *Tracker) Sum() int64 { return t.sum }

// Min returns the lowest latency since the last reset, or MinSentinel.
func (t *Tracker) Min() int64 { return t.min }

// Max returns the highest latency since the last reset, or 0.
func (t *Tracker) Max() int64 { return t.max }

// Mean returns sum/count, or 0 when no sample has been recorded.
func (t *Tracker) Mean() float64 {
	if t.count == 0 {
		return 0
	}
	return float64(t.sum) / float64(t.count)
}

// AverageMicros returns the integer average used in CSV rows.
func (t *Tracker) AverageMicros() int64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / t.count
}

// StdDev returns the windowed standard deviation anchored on Mean.
func (t *Tracker) StdDev() float64 {
	return t.window.StdDevAround(t.Mean())
}

// Window exposes the sample ring.
func (t *Tracker) Window() *Window { return t.window }

// Lifetime returns a snapshot of the lifetime aggregates.
func (t *Tracker) Lifetime() Lifetime {
	return Lifetime{
		Count: t.count,
		Sum:   t.sum,
		Min:   t.min,
		Max:   t.max,
		Mean:  t.Mean(),
	}
}
