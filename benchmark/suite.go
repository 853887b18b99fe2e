package benchmark

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/logging"
	"github.com/nvr-ai/go-mlbench/pacing"
	"github.com/nvr-ai/go-mlbench/profiler"
	"github.com/nvr-ai/go-mlbench/report"
)

// EngineFactory opens the engine a scenario asks for.
type EngineFactory func(cfg Config) (inference.Engine, error)

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	// Engines opens one engine per scenario.
	Engines EngineFactory
	// Sink receives the reports of every scenario. Nil discards.
	Sink report.Sink
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Clock overrides the monotonic clock, mainly for tests.
	Clock profiler.Clock
	// RunID is shared by all scenarios. Empty gives each run its own id.
	RunID string
	// OutputPath is the directory SaveResults writes to.
	OutputPath string
}

// Suite manages and executes benchmark scenarios one after another.
type Suite struct {
	engines   EngineFactory
	sink      report.Sink
	logger    *slog.Logger
	clock     profiler.Clock
	runID     string
	outputDir string

	mu        sync.RWMutex
	scenarios []Config
	results   []*Result
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
func NewSuite(args NewSuiteArgs) *Suite {
	sink := args.Sink
	if sink == nil {
		sink = report.Discard
	}
	return &Suite{
		engines:   args.Engines,
		sink:      sink,
		logger:    logging.OrDefault(args.Logger),
		clock:     args.Clock,
		runID:     args.RunID,
		outputDir: args.OutputPath,
		scenarios: make([]Config, 0),
		results:   make([]*Result, 0),
	}
}

// AddScenario adds a scenario to the suite.
func (s *Suite) AddScenario(scenario Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios = append(s.scenarios, scenario)
}

// AddScenarioSet adds every scenario of set.
func (s *Suite) AddScenarioSet(set *ScenarioSet) {
	for _, sc := range set.Scenarios {
		s.AddScenario(sc)
	}
}

// Scenarios returns a copy of the queued scenarios.
func (s *Suite) Scenarios() []Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Config(nil), s.scenarios...)
}

// Results returns a copy of the collected results.
func (s *Suite) Results() []*Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Result(nil), s.results...)
}

// RunScenario executes a single scenario and records its result.
//
// Arguments:
//   - ctx: Cancels the run. Cancellation is not an error.
//   - scenario: The configuration to run.
//
// Returns:
//   - *Result: The run summary.
//   - error: A validation, engine or input error.
func (s *Suite) RunScenario(ctx context.Context, scenario Config) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	if s.engines == nil {
		return nil, errors.Wrap(ErrMissingCollaborator, "engine factory")
	}

	engine, err := s.engines(scenario)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s engine", scenario.Engine)
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			s.logger.Warn("engine close failed", "scenario", scenario.ScenarioName(), "error", cerr)
		}
	}()

	pacer, err := pacing.New(scenario.Pacing, scenario.Delay)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	args := scenario.ControllerArgs(engine.Spec())
	args.Sink = s.sink
	args.Memory = profiler.NewRuntimeProbe(engine)
	args.Logger = s.logger
	controller := NewController(args)

	runner, err := NewRunner(RunnerArgs{
		Engine:     engine,
		Controller: controller,
		Clock:      s.clock,
		Pacer:      pacer,
		Logger:     s.logger.With("scenario", scenario.ScenarioName()),
		Iterations: scenario.Iterations,
		RunID:      s.runID,
		Scenario:   scenario.ScenarioName(),
	})
	if err != nil {
		return nil, err
	}

	result, err := runner.Run(ctx)
	if result != nil {
		s.mu.Lock()
		s.results = append(s.results, result)
		s.mu.Unlock()
	}
	return result, err
}

// RunAll executes every queued scenario. A failing scenario is logged and
// the suite moves on; the failures are returned together at the end.
func (s *Suite) RunAll(ctx context.Context) ([]*Result, error) {
	var (
		results []*Result
		failed  []error
	)
	for _, sc := range s.Scenarios() {
		if ctx.Err() != nil {
			break
		}
		result, err := s.RunScenario(ctx, sc)
		if err != nil {
			s.logger.Error("scenario failed", "scenario", sc.ScenarioName(), "error", err)
			failed = append(failed, errors.Wrap(err, sc.ScenarioName()))
			continue
		}
		results = append(results, result)
	}
	if len(failed) > 0 {
		return results, errors.Errorf("%d of %d scenarios failed: %v", len(failed), len(s.Scenarios()), failed)
	}
	return results, nil
}

// SaveResults writes the collected results as JSON into the output
// directory and returns the file path.
func (s *Suite) SaveResults(filename string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}

	data, err := json.MarshalIndent(s.Results(), "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal results")
	}

	path := filepath.Join(s.outputDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write results")
	}
	return path, nil
}
