// Package pacing - Inter-sample delay strategies for the benchmark loop.
package pacing

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Mode names a pacing strategy.
type Mode string

const (
	// ModeDelay sleeps a fixed duration after every sample.
	ModeDelay Mode = "delay"
	// ModeRate spaces samples at a fixed rate regardless of inference time.
	ModeRate Mode = "rate"
)

// Pacer blocks between samples. Wait returns ctx.Err() when the context is
// cancelled before the pause elapses.
type Pacer interface {
	Wait(ctx context.Context) error
}

// New returns the pacer for mode. A non-positive delay yields a pacer that
// only checks for cancellation.
func New(mode Mode, delay time.Duration) (Pacer, error) {
	switch mode {
	case "", ModeDelay:
		return NewDelayPacer(delay), nil
	case ModeRate:
		return NewRatePacer(delay), nil
	default:
		return nil, errors.Errorf("unknown pacing mode %q", mode)
	}
}

// DelayPacer sleeps for a fixed duration on every call.
type DelayPacer struct {
	delay time.Duration
}

// NewDelayPacer creates a DelayPacer.
func NewDelayPacer(delay time.Duration) *DelayPacer {
	return &DelayPacer{delay: delay}
}

// Wait sleeps for the configured delay or until ctx is done.
func (p *DelayPacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RatePacer admits one sample per interval using a token bucket of size one.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer creates a RatePacer releasing one sample every interval.
func NewRatePacer(interval time.Duration) *RatePacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RatePacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next slot is available or ctx is done.
func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
