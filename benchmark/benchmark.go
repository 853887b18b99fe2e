// Package benchmark - Latency statistics, reporting cadence and the driver
// loop that times an inference engine.
//
// A run is assembled from collaborators:
//
//	engine := ...                          // inference.Engine
//	ctrl := benchmark.NewController(benchmark.ControllerArgs{
//	    Model: engine.Spec(),
//	    Sink:  report.NewCSVSink(os.Stdout),
//	    WarmupInferences: 10,
//	})
//	runner, _ := benchmark.NewRunner(benchmark.RunnerArgs{
//	    Engine:     engine,
//	    Controller: ctrl,
//	    Pacer:      pacing.NewDelayPacer(100 * time.Millisecond),
//	})
//	result, err := runner.Run(ctx)
package benchmark

import "github.com/pkg/errors"

var (
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid benchmark config")
	// ErrMissingCollaborator is returned when a runner is built without an
	// engine or controller.
	ErrMissingCollaborator = errors.New("missing benchmark collaborator")
)
