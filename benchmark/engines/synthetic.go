// Package engines - Inference engine implementations timed by the benchmark.
package engines

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/models"
)

const (
	// DefaultWorkload is the busy loop length of the synthetic engine.
	DefaultWorkload = 500
	// SyntheticArenaBytes is the arena the synthetic engine claims to
	// reserve.
	SyntheticArenaBytes = 10 * 1024
)

// SyntheticEngine stands in for a real runtime with a fixed arithmetic
// workload. It keeps the reporting pipeline honest on machines without a
// model runtime.
type SyntheticEngine struct {
	spec      models.Spec
	workload  int
	failEvery int
	calls     int
	result    int64
}

// NewSyntheticEngine creates a synthetic engine. workload <= 0 selects
// DefaultWorkload. failEvery > 0 makes every failEvery-th Invoke fail.
func NewSyntheticEngine(spec models.Spec, workload, failEvery int) *SyntheticEngine {
	if workload <= 0 {
		workload = DefaultWorkload
	}
	return &SyntheticEngine{spec: spec, workload: workload, failEvery: failEvery}
}

// Invoke runs the workload once.
func (e *SyntheticEngine) Invoke(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.calls++
	if e.failEvery > 0 && e.calls%e.failEvery == 0 {
		return errors.Wrapf(inference.ErrInvokeFailed, "synthetic failure on call %d", e.calls)
	}

	var acc int64
	for i := 0; i < e.workload; i++ {
		acc += int64(i) * int64(i)
	}
	e.result = acc
	return nil
}

// Result returns the value computed by the last successful Invoke.
func (e *SyntheticEngine) Result() int64 { return e.result }

// ArenaBytes returns SyntheticArenaBytes.
func (e *SyntheticEngine) ArenaBytes() uint64 { return SyntheticArenaBytes }

// Spec returns the model the engine pretends to run.
func (e *SyntheticEngine) Spec() models.Spec { return e.spec }

// Close does nothing.
func (e *SyntheticEngine) Close() error { return nil }
