package benchmark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-mlbench/logging"
	"github.com/nvr-ai/go-mlbench/models"
	"github.com/nvr-ai/go-mlbench/pacing"
)

type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

func newTestRunner(t *testing.T, engine *scriptedEngine, sink *recordingSink, clock *fakeClock, pacer pacing.Pacer, iterations int) *Runner {
	t.Helper()
	c := NewController(ControllerArgs{
		Model:            engine.Spec(),
		Sink:             sink,
		Logger:           logging.Discard(),
		WarmupInferences: 10,
		ReportEvery:      10,
		SummaryEvery:     100,
	})
	r, err := NewRunner(RunnerArgs{
		Engine:     engine,
		Controller: c,
		Clock:      clock,
		Pacer:      pacer,
		Logger:     logging.Discard(),
		Iterations: iterations,
		RunID:      "run-test",
	})
	require.NoError(t, err)
	return r
}

func TestNewRunner_RequiresCollaborators(t *testing.T) {
	_, err := NewRunner(RunnerArgs{})
	assert.ErrorIs(t, err, ErrMissingCollaborator)

	_, err = NewRunner(RunnerArgs{Engine: newScriptedEngine(&fakeClock{})})
	assert.ErrorIs(t, err, ErrMissingCollaborator)

	r, err := NewRunner(RunnerArgs{Engine: newScriptedEngine(&fakeClock{}), Controller: NewController(ControllerArgs{})})
	require.NoError(t, err)
	assert.NotEmpty(t, r.RunID())
}

func TestRunner_TimesEveryInvoke(t *testing.T) {
	clock := &fakeClock{}
	engine := newScriptedEngine(clock, append(append([]int64{}, warmupSequence...), 300, 300, 300, 300, 300, 300, 300, 300, 300, 300)...)
	sink := &recordingSink{}
	pacer := &countingPacer{}

	res, err := newTestRunner(t, engine, sink, clock, pacer, 20).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-test", res.RunID)
	assert.Equal(t, "sine_float32", res.Model)
	assert.Equal(t, int64(20), res.Inferences)
	assert.Equal(t, int64(20), res.Samples)
	assert.Equal(t, int64(0), res.Failures)
	assert.Equal(t, int64(1), res.Reports)
	assert.Equal(t, "measuring", res.Phase)
	assert.Equal(t, Lifetime{Count: 10, Sum: 3000, Min: 300, Max: 300, Mean: 300}, res.Lifetime)
	assert.Equal(t, 20, res.WindowLen)
	assert.Equal(t, 19, pacer.waits, "no pause after the last sample")

	require.Len(t, sink.rows, 1)
	assert.Equal(t, int64(300), sink.rows[0].LatencyUS)
}

func TestRunner_FailedInvokeNotRecorded(t *testing.T) {
	clock := &fakeClock{}
	engine := newScriptedEngine(clock, 100)
	engine.failOn[3] = true
	engine.failOn[4] = true
	sink := &recordingSink{}

	res, err := newTestRunner(t, engine, sink, clock, nil, 22).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(22), res.Inferences)
	assert.Equal(t, int64(20), res.Samples)
	assert.Equal(t, int64(2), res.Failures)
	assert.InDelta(t, 2.0/22, res.ErrorRate(), 1e-12)
	// Ten samples warm up, ten more produce the first report.
	assert.Len(t, sink.rows, 1)
	assert.Equal(t, int64(10), res.Lifetime.Count)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	clock := &fakeClock{}
	engine := newScriptedEngine(clock, 50)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.cancel = cancel
	engine.cancelAt = 35

	res, err := newTestRunner(t, engine, &recordingSink{}, clock, pacing.NewDelayPacer(time.Microsecond), 0).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(35), res.Inferences)
	assert.Equal(t, 35, engine.calls)
}

func TestRunner_CancelledInvokeIsNotAFailure(t *testing.T) {
	clock := &fakeClock{}
	engine := newScriptedEngine(clock, 50)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.cancel = cancel
	engine.cancelAt = 5
	engine.failOn[4] = true

	res, err := newTestRunner(t, engine, &recordingSink{}, clock, nil, 0).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Inferences)
	assert.Equal(t, int64(0), res.Failures)
	assert.Equal(t, int64(4), res.Samples)
}

func TestRunner_SetsSynthesizedInput(t *testing.T) {
	clock := &fakeClock{}
	engine := inputEngine{newScriptedEngine(clock, 10)}
	c := NewController(ControllerArgs{Model: engine.Spec(), Logger: logging.Discard()})

	logger, err := logging.New(logging.Config{Level: "debug", Output: &discardWriter{}})
	require.NoError(t, err)

	r, err := NewRunner(RunnerArgs{Engine: engine, Controller: c, Clock: clock, Logger: logger, Iterations: 3})
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, engine.inputs, 3)
	for _, in := range engine.inputs {
		assert.Equal(t, []int{1, 1}, []int(in.Shape()))
	}
}

func TestRunner_InputErrorStopsRun(t *testing.T) {
	clock := &fakeClock{}
	engine := inputEngine{newScriptedEngine(clock, 10)}
	engine.spec = models.Spec{Name: "mystery", Family: "audio", InputShape: []int{1}}
	c := NewController(ControllerArgs{Model: engine.Spec(), Logger: logging.Discard()})

	r, err := NewRunner(RunnerArgs{Engine: engine, Controller: c, Clock: clock, Logger: logging.Discard(), Iterations: 3})
	require.NoError(t, err)

	res, err := r.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
	assert.Equal(t, int64(0), res.Inferences)
}

func TestResult_Rates(t *testing.T) {
	r := &Result{Inferences: 50, Failures: 5, Duration: 10 * time.Second}
	assert.Equal(t, 5.0, r.InferencesPerSecond())
	assert.Equal(t, 0.1, r.ErrorRate())

	empty := &Result{}
	assert.Equal(t, 0.0, empty.InferencesPerSecond())
	assert.Equal(t, 0.0, empty.ErrorRate())
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
