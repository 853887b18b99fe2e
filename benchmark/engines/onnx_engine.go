package engines

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/inference/providers"
	"github.com/nvr-ai/go-mlbench/models"
)

// ErrRuntimeUnavailable is returned when the onnxruntime shared library
// cannot be loaded.
var ErrRuntimeUnavailable = errors.New("onnxruntime library not available")

var (
	envMu          sync.Mutex
	envInitialized bool
)

// initEnvironment loads the shared library once per process.
func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envInitialized {
		return nil
	}
	if libPath != "" {
		if _, err := os.Stat(libPath); err != nil {
			return errors.Wrapf(ErrRuntimeUnavailable, "%s: %v", libPath, err)
		}
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(ErrRuntimeUnavailable, err.Error())
	}
	envInitialized = true
	return nil
}

// CleanupEnvironment tears down the onnxruntime environment. Call it once
// all ONNX engines are closed.
func CleanupEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if !envInitialized {
		return nil
	}
	envInitialized = false
	return ort.DestroyEnvironment()
}

// ONNXEngine runs a catalog model through onnxruntime. Input and output
// tensors are allocated once from the model's declared shapes; each Invoke
// is a single session run.
type ONNXEngine struct {
	spec    models.Spec
	session *ort.AdvancedSession

	inputs  []ort.Value
	outputs []ort.Value
	arena   uint64
}

// NewONNXEngine loads model into a new session.
//
// Arguments:
//   - model: The catalog entry and its ONNX bytes.
//   - libPath: Path to the onnxruntime shared library, or empty for the
//     platform default.
//   - opts: Execution provider and threading. The zero value uses the
//     runtime defaults.
//
// Returns:
//   - *ONNXEngine: The engine.
//   - error: ErrRuntimeUnavailable, or a model inspection or session error.
func NewONNXEngine(model *models.Model, libPath string, opts providers.Options) (*ONNXEngine, error) {
	if err := initEnvironment(libPath); err != nil {
		return nil, err
	}

	inInfo, outInfo, err := ort.GetInputOutputInfoWithONNXData(model.Bytes)
	if err != nil {
		return nil, errors.Wrapf(err, "inspect %s", model.Spec.Name)
	}

	e := &ONNXEngine{spec: model.Spec}
	inNames, err := e.allocate(inInfo, &e.inputs)
	if err != nil {
		e.Close()
		return nil, err
	}
	outNames, err := e.allocate(outInfo, &e.outputs)
	if err != nil {
		e.Close()
		return nil, err
	}

	var options *ort.SessionOptions
	if !opts.IsZero() {
		options, err = providers.NewSessionOptions(opts)
		if err != nil {
			e.Close()
			return nil, errors.Wrapf(err, "session options for %s", model.Spec.Name)
		}
		defer options.Destroy()
	}

	e.session, err = ort.NewAdvancedSessionWithONNXData(model.Bytes, inNames, outNames, e.inputs, e.outputs, options)
	if err != nil {
		e.Close()
		return nil, errors.Wrapf(err, "create session for %s", model.Spec.Name)
	}
	return e, nil
}

func (e *ONNXEngine) allocate(infos []ort.InputOutputInfo, into *[]ort.Value) ([]string, error) {
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		shape := concreteShape(info.Dimensions)

		var (
			v     ort.Value
			err   error
			bytes uint64
		)
		switch info.DataType {
		case ort.TensorElementDataTypeFloat:
			v, err = ort.NewEmptyTensor[float32](shape)
			bytes = 4
		case ort.TensorElementDataTypeInt8:
			v, err = ort.NewEmptyTensor[int8](shape)
			bytes = 1
		default:
			return nil, errors.Wrapf(inference.ErrQuantizationUnsupported, "tensor %q has element type %v", info.Name, info.DataType)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "allocate tensor %q", info.Name)
		}

		*into = append(*into, v)
		names = append(names, info.Name)
		e.arena += bytes * uint64(shape.FlattenedSize())
	}
	return names, nil
}

// concreteShape replaces symbolic dimensions such as the batch axis with 1.
func concreteShape(dims ort.Shape) ort.Shape {
	shape := make(ort.Shape, len(dims))
	for i, d := range dims {
		if d <= 0 {
			d = 1
		}
		shape[i] = d
	}
	return shape
}

// SetInput writes the synthesized input into the first input tensor,
// quantizing it for int8 models.
func (e *ONNXEngine) SetInput(input *tensor.Dense) error {
	if len(e.inputs) == 0 {
		return errors.New("model has no inputs")
	}
	values, err := inference.Values(input)
	if err != nil {
		return err
	}

	switch t := e.inputs[0].(type) {
	case *ort.Tensor[float32]:
		return copyInto(t.GetData(), values)
	case *ort.Tensor[int8]:
		return copyInto(t.GetData(), inference.QuantizeInt8(values, e.spec.InputScale, e.spec.InputZeroPoint))
	default:
		return errors.Errorf("unsupported input tensor %T", t)
	}
}

func copyInto[T any](dst, src []T) error {
	if len(dst) != len(src) {
		return errors.Errorf("input has %d values, model expects %d", len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// Invoke runs the session once.
func (e *ONNXEngine) Invoke(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.session.Run(); err != nil {
		return errors.Wrap(inference.ErrInvokeFailed, err.Error())
	}
	return nil
}

// Output returns the first output as float32. int8 outputs are returned raw
// since the catalog only records input quantization parameters.
func (e *ONNXEngine) Output() []float32 {
	if len(e.outputs) == 0 {
		return nil
	}
	switch t := e.outputs[0].(type) {
	case *ort.Tensor[float32]:
		return append([]float32(nil), t.GetData()...)
	case *ort.Tensor[int8]:
		data := t.GetData()
		out := make([]float32, len(data))
		for i, v := range data {
			out[i] = float32(v)
		}
		return out
	default:
		return nil
	}
}

// ArenaBytes returns the bytes of all input and output tensors.
func (e *ONNXEngine) ArenaBytes() uint64 { return e.arena }

// Spec returns the model the session runs.
func (e *ONNXEngine) Spec() models.Spec { return e.spec }

// Close destroys the session and its tensors.
func (e *ONNXEngine) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if e.session != nil {
		keep(e.session.Destroy())
		e.session = nil
	}
	for _, v := range append(e.inputs, e.outputs...) {
		keep(v.Destroy())
	}
	e.inputs, e.outputs = nil, nil
	return first
}
