package benchmark

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/logging"
	"github.com/nvr-ai/go-mlbench/pacing"
	"github.com/nvr-ai/go-mlbench/profiler"
)

// RunnerArgs wires the collaborators of a Runner.
type RunnerArgs struct {
	Engine     inference.Engine
	Controller *Controller
	// Clock defaults to a MonotonicClock.
	Clock profiler.Clock
	// Pacer defaults to no pause between samples.
	Pacer  pacing.Pacer
	Logger *slog.Logger
	// Iterations bounds the number of Invoke attempts. Zero runs until the
	// context is cancelled.
	Iterations int
	// RunID tags logs and results. Empty generates a random id.
	RunID string
	// Scenario names the run in its Result.
	Scenario string
}

// Runner is the benchmark driver loop: synthesize input, time one Invoke,
// feed the controller, pause, repeat.
type Runner struct {
	engine     inference.Engine
	controller *Controller
	clock      profiler.Clock
	pacer      pacing.Pacer
	logger     *slog.Logger
	iterations int
	runID      string
	scenario   string
}

// NewRunner validates args and fills in defaults.
//
// Arguments:
//   - args: The collaborators and limits of the run.
//
// Returns:
//   - *Runner: The runner.
//   - error: ErrMissingCollaborator when the engine or controller is nil.
func NewRunner(args RunnerArgs) (*Runner, error) {
	if args.Engine == nil {
		return nil, errors.Wrap(ErrMissingCollaborator, "engine")
	}
	if args.Controller == nil {
		return nil, errors.Wrap(ErrMissingCollaborator, "controller")
	}

	r := &Runner{
		engine:     args.Engine,
		controller: args.Controller,
		clock:      args.Clock,
		pacer:      args.Pacer,
		iterations: args.Iterations,
		runID:      args.RunID,
		scenario:   args.Scenario,
	}
	if r.clock == nil {
		r.clock = profiler.NewMonotonicClock()
	}
	if r.pacer == nil {
		r.pacer = pacing.NewDelayPacer(0)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	r.logger = logging.OrDefault(args.Logger).With("run_id", r.runID)
	return r, nil
}

// RunID returns the identifier of the run.
func (r *Runner) RunID() string { return r.runID }

// Run drives the loop until the iteration limit is reached or ctx is
// cancelled. Cancellation is a normal stop and returns a nil error. A failed
// Invoke is logged and counted but never recorded.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	spec := r.engine.Spec()
	res := &Result{
		RunID:        r.runID,
		Scenario:     r.scenario,
		Model:        spec.Name,
		Quantization: string(spec.Quantization),
		Started:      time.Now(),
	}
	defer func() {
		r.finish(res)
	}()

	r.logger.Info("benchmark started",
		"model", spec.Name,
		"quantization", spec.Quantization,
		"iterations", r.iterations)
	r.controller.Start()

	for i := 0; r.iterations == 0 || i < r.iterations; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := r.step(ctx, i, res); err != nil {
			if ctx.Err() != nil {
				break
			}
			return res, err
		}
		if r.iterations != 0 && i == r.iterations-1 {
			break
		}
		if err := r.pacer.Wait(ctx); err != nil {
			break
		}
	}
	return res, nil
}

// step performs one timed inference. Only input preparation errors are
// returned; they are permanent for the configured model.
func (r *Runner) step(ctx context.Context, i int, res *Result) error {
	spec := r.engine.Spec()

	if setter, ok := r.engine.(inference.InputSetter); ok {
		input, err := inference.Synthesize(spec, i)
		if err != nil {
			return errors.Wrapf(err, "synthesize input for %s", spec.Name)
		}
		if err := setter.SetInput(input); err != nil {
			return errors.Wrapf(err, "set input for %s", spec.Name)
		}
	}

	start := r.clock.NowMicroseconds()
	err := r.engine.Invoke(ctx)
	latency := r.clock.NowMicroseconds() - start
	res.Inferences++

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res.Failures++
		r.logger.Error("inference failed", "iteration", i, "error", err)
		return nil
	}

	if err := r.controller.RecordSample(latency); err != nil {
		res.Failures++
		r.logger.Warn("sample rejected", "iteration", i, "latency_us", latency, "error", err)
		return nil
	}
	res.Samples++

	if reader, ok := r.engine.(inference.OutputReader); ok && r.logger.Enabled(ctx, slog.LevelDebug) {
		r.logger.Debug("inference output",
			"iteration", i,
			"latency_us", latency,
			"class", spec.TopClass(reader.Output()))
	}
	return nil
}

func (r *Runner) finish(res *Result) {
	res.Duration = time.Since(res.Started)
	res.Reports = r.controller.Reports()
	res.Summaries = r.controller.Summaries()
	res.Phase = r.controller.Phase().String()
	res.Lifetime = r.controller.Tracker().Lifetime()
	res.WindowLen = r.controller.Tracker().Window().Len()
	res.WindowStdDev = r.controller.Tracker().StdDev()

	r.logger.Info("benchmark finished",
		"inferences", res.Inferences,
		"samples", res.Samples,
		"failures", res.Failures,
		"duration", res.Duration)
}
