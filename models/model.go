// Package models - Catalog of the benchmarkable model variants.
package models

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrUnknownModel is returned when a model kind is not in the catalog.
var ErrUnknownModel = errors.New("unknown model")

// Kind is the unique identifier of a model variant.
type Kind string

const (
	// KindSineFloat32 is the sine-wave regressor with float32 weights.
	KindSineFloat32 Kind = "sine_float32"
	// KindSineInt8 is the sine-wave regressor quantized to int8.
	KindSineInt8 Kind = "sine_int8"
	// KindCNNFloat32 is the 8x8 pattern classifier CNN with float32 weights.
	KindCNNFloat32 Kind = "cnn_float32"
	// KindCNNInt8 is the 8x8 pattern classifier CNN quantized to int8.
	KindCNNInt8 Kind = "cnn_int8"
	// KindRNNFloat32 is the LSTM sequence classifier with float32 weights.
	KindRNNFloat32 Kind = "rnn_float32"
	// KindRNNInt8 is the LSTM sequence classifier quantized to int8.
	KindRNNInt8 Kind = "rnn_int8"
	// KindPersonDetectionInt8 is the 96x96 grayscale person detector.
	KindPersonDetectionInt8 Kind = "person_detection_int8"
)

// Family groups model variants that share an architecture and input layout.
type Family string

const (
	// FamilySine is a single scalar in, single scalar out regressor.
	FamilySine Family = "sine"
	// FamilyCNN consumes a single channel image.
	FamilyCNN Family = "cnn"
	// FamilyRNN consumes a one dimensional sequence.
	FamilyRNN Family = "rnn"
	// FamilyPersonDetection consumes a single channel image.
	FamilyPersonDetection Family = "person_detection"
)

// Spec describes a model variant: its labels, tensor shapes and the operators
// the runtime must provide to execute it.
type Spec struct {
	Kind         Kind         `json:"kind"         yaml:"kind"`
	Name         string       `json:"name"         yaml:"name"`
	Family       Family       `json:"family"       yaml:"family"`
	Quantization Quantization `json:"quantization" yaml:"quantization"`
	InputShape   []int        `json:"input_shape"  yaml:"input_shape"`
	OutputShape  []int        `json:"output_shape" yaml:"output_shape"`
	Ops          []string     `json:"ops"          yaml:"ops"`
	Classes      []string     `json:"classes"      yaml:"classes"`
	// InputScale and InputZeroPoint describe the affine int8 input
	// quantization. Unused for float32 variants.
	InputScale     float32 `json:"input_scale"      yaml:"input_scale"`
	InputZeroPoint int8    `json:"input_zero_point" yaml:"input_zero_point"`
}

// InputSize returns the number of elements in one input tensor.
func (s Spec) InputSize() int {
	return elements(s.InputShape)
}

// OutputSize returns the number of elements in one output tensor.
func (s Spec) OutputSize() int {
	return elements(s.OutputShape)
}

func elements(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Model is a catalog entry together with its serialized bytes.
type Model struct {
	Spec  Spec
	Bytes []byte
}

// Len returns the serialized model size in bytes.
func (m *Model) Len() int {
	return len(m.Bytes)
}

// Load reads the serialized model for kind from dir. The file is expected to
// be named after the variant, e.g. "sine_float32.onnx".
//
// Arguments:
//   - kind: The model variant to load.
//   - dir: The directory holding the model files.
//
// Returns:
//   - *Model: The spec and model bytes.
//   - error: ErrUnknownModel, or an error if the file cannot be read.
func Load(kind Kind, dir string) (*Model, error) {
	spec, err := Lookup(kind)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, spec.Name+".onnx")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read model %s", path)
	}
	if len(data) == 0 {
		return nil, errors.Errorf("model file %s is empty", path)
	}

	return &Model{Spec: spec, Bytes: data}, nil
}
