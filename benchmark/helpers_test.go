package benchmark

import (
	"context"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/models"
	"github.com/nvr-ai/go-mlbench/report"
)

// fakeClock only moves when told to.
type fakeClock struct {
	now int64
}

func (c *fakeClock) NowMicroseconds() int64 { return c.now }

// fakeMemory reports fixed figures.
type fakeMemory struct {
	free, minFree, arena uint64
}

func (m fakeMemory) FreeHeapBytes() uint64            { return m.free }
func (m fakeMemory) MinimumFreeHeapEverBytes() uint64 { return m.minFree }
func (m fakeMemory) ArenaUsedBytes() uint64           { return m.arena }

// recordingSink keeps everything it is sent, in order.
type recordingSink struct {
	events    []string
	rows      []report.Row
	summaries []report.Summary
	err       error
}

func (s *recordingSink) Header() error {
	s.events = append(s.events, "header")
	return s.err
}

func (s *recordingSink) Status(r report.Row) error {
	s.events = append(s.events, "status")
	s.rows = append(s.rows, r)
	return s.err
}

func (s *recordingSink) Summary(sum report.Summary) error {
	s.events = append(s.events, "summary")
	s.summaries = append(s.summaries, sum)
	return s.err
}

// scriptedEngine advances the clock by the next scripted latency on every
// Invoke and fails on the scripted iterations.
type scriptedEngine struct {
	spec      models.Spec
	clock     *fakeClock
	latencies []int64
	failOn    map[int]bool
	cancelAt  int
	cancel    context.CancelFunc

	calls  int
	inputs []*tensor.Dense
	closed bool
}

func newScriptedEngine(clock *fakeClock, latencies ...int64) *scriptedEngine {
	spec, _ := models.Lookup(models.KindSineFloat32)
	return &scriptedEngine{spec: spec, clock: clock, latencies: latencies, failOn: map[int]bool{}}
}

func (e *scriptedEngine) Invoke(ctx context.Context) error {
	i := e.calls
	e.calls++
	if len(e.latencies) > 0 {
		e.clock.now += e.latencies[i%len(e.latencies)]
	}
	if e.cancel != nil && e.calls == e.cancelAt {
		e.cancel()
	}
	if e.failOn[i] {
		return errors.Wrapf(inference.ErrInvokeFailed, "iteration %d", i)
	}
	return nil
}

func (e *scriptedEngine) ArenaBytes() uint64 { return 64 }
func (e *scriptedEngine) Spec() models.Spec  { return e.spec }
func (e *scriptedEngine) Close() error {
	e.closed = true
	return nil
}

// inputEngine also accepts inputs and exposes an output.
type inputEngine struct {
	*scriptedEngine
}

func (e inputEngine) SetInput(input *tensor.Dense) error {
	e.inputs = append(e.inputs, input)
	return nil
}

func (e inputEngine) Output() []float32 { return []float32{0.5} }
