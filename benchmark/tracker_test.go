package benchmark

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Empty(t *testing.T) {
	tr := NewTracker(0)
	assert.Equal(t, int64(0), tr.Count())
	assert.Equal(t, 0.0, tr.Mean())
	assert.Equal(t, int64(0), tr.AverageMicros())
	assert.Equal(t, MinSentinel, tr.Min())
	assert.Equal(t, int64(0), tr.Max())
	assert.Equal(t, 0.0, tr.StdDev())
	assert.Equal(t, DefaultWindowSize, tr.Window().Capacity())
}

func TestTracker_RecordSample(t *testing.T) {
	tr := NewTracker(100)
	for _, us := range []int64{120, 80, 100} {
		require.NoError(t, tr.RecordSample(us))
	}

	assert.Equal(t, Lifetime{Count: 3, Sum: 300, Min: 80, Max: 120, Mean: 100}, tr.Lifetime())
	assert.Equal(t, int64(100), tr.AverageMicros())
	// sqrt((400 + 400 + 0) / 2)
	assert.InDelta(t, 20.0, tr.StdDev(), 1e-12)
}

func TestTracker_SingleSampleStdDevIsZero(t *testing.T) {
	tr := NewTracker(10)
	require.NoError(t, tr.RecordSample(500))
	assert.Equal(t, 0.0, tr.StdDev())
}

func TestTracker_NegativeLatencyRejected(t *testing.T) {
	tr := NewTracker(10)
	err := tr.RecordSample(-1)
	assert.ErrorIs(t, err, ErrNegativeLatency)
	assert.Equal(t, int64(0), tr.Count())
	assert.Equal(t, 0, tr.Window().Len())
}

func TestTracker_AverageTruncates(t *testing.T) {
	tr := NewTracker(10)
	require.NoError(t, tr.RecordSample(1))
	require.NoError(t, tr.RecordSample(2))
	assert.Equal(t, 1.5, tr.Mean())
	assert.Equal(t, int64(1), tr.AverageMicros())
}

func TestTracker_ResetKeepsWindow(t *testing.T) {
	tr := NewTracker(10)
	for _, us := range []int64{10, 20, 30} {
		require.NoError(t, tr.RecordSample(us))
	}

	tr.Reset()

	assert.Equal(t, Lifetime{Count: 0, Sum: 0, Min: MinSentinel, Max: 0, Mean: 0}, tr.Lifetime())
	assert.Equal(t, []int64{10, 20, 30}, tr.Window().Values())

	require.NoError(t, tr.RecordSample(40))
	assert.Equal(t, int64(40), tr.Min())
	assert.Equal(t, int64(40), tr.Max())
	assert.Equal(t, []int64{10, 20, 30, 40}, tr.Window().Values())

	// Deviation is measured against the lifetime mean of 40:
	// (900 + 400 + 100 + 0) / 3.
	assert.InDelta(t, math.Sqrt(1400.0/3), tr.StdDev(), 1e-9)
}

func TestTracker_StdDevUsesLifetimeMeanNotWindowMean(t *testing.T) {
	tr := NewTracker(2)
	for _, us := range []int64{1000, 10, 20} {
		require.NoError(t, tr.RecordSample(us))
	}

	mean := tr.Mean()
	assert.InDelta(t, 1030.0/3, mean, 1e-9)
	assert.Equal(t, 15.0, tr.Window().Mean())

	want := math.Sqrt(((10-mean)*(10-mean) + (20-mean)*(20-mean)) / 1)
	assert.InDelta(t, want, tr.StdDev(), 1e-9)
	assert.NotEqual(t, tr.Window().StdDevAround(tr.Window().Mean()), tr.StdDev())
}

func TestTracker_AggregatesIgnoreWindowEviction(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		tr := NewTracker(8)
		n := 1 + r.Intn(200)

		var (
			sum    int64
			lo, hi int64 = math.MaxInt64, 0
		)
		for i := 0; i < n; i++ {
			us := r.Int63n(100000)
			require.NoError(t, tr.RecordSample(us))
			sum += us
			if us < lo {
				lo = us
			}
			if us > hi {
				hi = us
			}
		}

		assert.Equal(t, int64(n), tr.Count())
		assert.InDelta(t, float64(sum)/float64(n), tr.Mean(), 1e-6)
		assert.Equal(t, lo, tr.Min())
		assert.Equal(t, hi, tr.Max())

		resident := n
		if resident > 8 {
			resident = 8
		}
		assert.Equal(t, resident, tr.Window().Len())
	}
}
