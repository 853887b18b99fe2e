// Package inference - Inference engine interface and input synthesis.
package inference

import (
	"context"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-mlbench/models"
)

var (
	// ErrInvokeFailed is returned when a single inference invocation fails.
	ErrInvokeFailed = errors.New("invoke failed")
	// ErrQuantizationUnsupported is returned when an engine cannot execute a
	// model with the requested quantization.
	ErrQuantizationUnsupported = errors.New("quantization not supported by engine")
)

// Engine is the opaque inference collaborator that the benchmark times. The
// benchmark only needs one blocking call per sample; model shape, operators
// and quantization stay behind this interface.
type Engine interface {
	// Invoke runs one inference over the currently loaded input.
	Invoke(ctx context.Context) error
	// ArenaBytes returns the bytes the engine has reserved for tensors.
	ArenaBytes() uint64
	// Spec returns the model variant the engine executes.
	Spec() models.Spec
	// Close releases the engine's resources.
	Close() error
}

// InputSetter is implemented by engines that consume a synthesized input
// tensor before each invocation.
type InputSetter interface {
	SetInput(input *tensor.Dense) error
}

// OutputReader is implemented by engines that expose the last output tensor.
type OutputReader interface {
	Output() []float32
}
