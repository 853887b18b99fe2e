package engines

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-mlbench/benchmark"
	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/models"
)

// New opens the engine cfg asks for. It satisfies benchmark.EngineFactory.
//
// Arguments:
//   - cfg: The run configuration. Model, Engine, ModelDir, ONNXLibraryPath,
//     Provider and Workload are used.
//
// Returns:
//   - inference.Engine: The opened engine. The caller closes it.
//   - error: An unknown model or engine, or an engine construction error.
func New(cfg benchmark.Config) (inference.Engine, error) {
	spec, err := models.Lookup(cfg.Model)
	if err != nil {
		return nil, err
	}

	switch cfg.Engine {
	case inference.EngineSynthetic:
		return NewSyntheticEngine(spec, cfg.Workload, 0), nil
	case inference.EngineGraph:
		engine, err := NewGraphEngine(spec, DefaultHiddenUnits)
		if err != nil {
			return nil, err
		}
		return engine, nil
	case inference.EngineONNX:
		model, err := models.Load(spec.Kind, cfg.ModelDir)
		if err != nil {
			return nil, err
		}
		engine, err := NewONNXEngine(model, cfg.ONNXLibraryPath, cfg.Provider)
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, errors.Errorf("unsupported engine type: %q", cfg.Engine)
	}
}

var _ benchmark.EngineFactory = New
