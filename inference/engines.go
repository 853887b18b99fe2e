// Package inference - Inference engine interface and implementations
package inference

import "github.com/pkg/errors"

// EngineType is the type of the engine
type EngineType string

const (
	// EngineSynthetic runs a fixed arithmetic workload in place of a model.
	EngineSynthetic EngineType = "synthetic"
	// EngineONNX is the ONNX engine that uses the onnxruntime library
	EngineONNX EngineType = "onnx"
	// EngineGraph builds the model as a pure Go computation graph.
	EngineGraph EngineType = "graph"
)

// Engines is a list of all supported engines
var Engines = []EngineType{EngineSynthetic, EngineONNX, EngineGraph}

// ParseEngineType converts a name such as "onnx" into an EngineType.
func ParseEngineType(name string) (EngineType, error) {
	for _, e := range Engines {
		if string(e) == name {
			return e, nil
		}
	}
	return "", errors.Errorf("unsupported engine type: %q", name)
}
