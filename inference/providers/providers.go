// Package providers - ONNX Runtime execution providers and session tuning.
package providers

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Provider represents different ONNX Runtime execution providers
type Provider string

const (
	// CPUExecutionProvider uses CPU for inference
	CPUExecutionProvider Provider = "cpu"

	// CUDAExecutionProvider uses NVIDIA CUDA for GPU acceleration
	CUDAExecutionProvider Provider = "cuda"

	// CoreMLExecutionProvider uses Apple CoreML for macOS/iOS acceleration
	CoreMLExecutionProvider Provider = "coreml"

	// OpenVINOExecutionProvider uses Intel OpenVINO for inference optimization
	OpenVINOExecutionProvider Provider = "openvino"
)

// Providers lists the supported execution providers.
var Providers = []Provider{
	CPUExecutionProvider,
	CUDAExecutionProvider,
	CoreMLExecutionProvider,
	OpenVINOExecutionProvider,
}

// GraphOptimization names an onnxruntime graph optimization level.
type GraphOptimization string

const (
	// GraphOptimizationDisabled turns every graph rewrite off.
	GraphOptimizationDisabled GraphOptimization = "disabled"
	// GraphOptimizationBasic applies semantics preserving rewrites only.
	GraphOptimizationBasic GraphOptimization = "basic"
	// GraphOptimizationExtended adds node fusions.
	GraphOptimizationExtended GraphOptimization = "extended"
	// GraphOptimizationAll adds layout optimizations.
	GraphOptimizationAll GraphOptimization = "all"
)

// Options tunes the onnxruntime session an engine creates. The zero value
// runs on the CPU provider with onnxruntime's own defaults.
type Options struct {
	// Provider selects the execution provider. Empty means cpu.
	Provider Provider `json:"provider,omitempty" yaml:"provider,omitempty" validate:"omitempty,oneof=cpu cuda coreml openvino"`
	// ProviderOptions are passed through to the provider, e.g. device_id.
	ProviderOptions map[string]string `json:"provider_options,omitempty" yaml:"provider_options,omitempty"`
	// IntraOpThreads parallelizes a single operator. Zero keeps the default.
	IntraOpThreads int `json:"intra_op_threads,omitempty" yaml:"intra_op_threads,omitempty" validate:"min=0"`
	// InterOpThreads parallelizes independent operators. Zero keeps the
	// default.
	InterOpThreads int `json:"inter_op_threads,omitempty" yaml:"inter_op_threads,omitempty" validate:"min=0"`
	// GraphOptimization selects the optimization level. Empty keeps the
	// default.
	GraphOptimization GraphOptimization `json:"graph_optimization,omitempty" yaml:"graph_optimization,omitempty" validate:"omitempty,oneof=disabled basic extended all"`
	// Parallel switches the session to the parallel execution mode.
	Parallel bool `json:"parallel,omitempty" yaml:"parallel,omitempty"`
}

// DefaultOptions returns a CPU configuration sized to the host: half the
// cores for intra-op work and extended graph optimization.
func DefaultOptions() Options {
	return Options{
		Provider:          CPUExecutionProvider,
		IntraOpThreads:    max(1, runtime.NumCPU()/2),
		GraphOptimization: GraphOptimizationExtended,
	}
}

// ParseProvider converts a name such as "cuda" into a Provider.
func ParseProvider(name string) (Provider, error) {
	if name == "" {
		return CPUExecutionProvider, nil
	}
	for _, p := range Providers {
		if string(p) == strings.ToLower(name) {
			return p, nil
		}
	}
	return "", errors.Errorf("unsupported execution provider: %q", name)
}

// IsZero reports whether the options leave every setting at its default.
func (o Options) IsZero() bool {
	return (o.Provider == "" || o.Provider == CPUExecutionProvider) &&
		len(o.ProviderOptions) == 0 &&
		o.IntraOpThreads == 0 &&
		o.InterOpThreads == 0 &&
		o.GraphOptimization == "" &&
		!o.Parallel
}

func graphLevel(g GraphOptimization) (ort.GraphOptimizationLevel, error) {
	switch g {
	case GraphOptimizationDisabled:
		return ort.GraphOptimizationLevelDisableAll, nil
	case GraphOptimizationBasic:
		return ort.GraphOptimizationLevelEnableBasic, nil
	case GraphOptimizationExtended, "":
		return ort.GraphOptimizationLevelEnableExtended, nil
	case GraphOptimizationAll:
		return ort.GraphOptimizationLevelEnableAll, nil
	default:
		return 0, errors.Errorf("unknown graph optimization level %q", g)
	}
}

// coreMLFlags reads the CoreML flag bitmask from the "flags" provider
// option.
func coreMLFlags(opts map[string]string) (uint32, error) {
	raw, ok := opts["flags"]
	if !ok {
		return 0, nil
	}
	var flags uint32
	if _, err := fmt.Sscanf(raw, "%d", &flags); err != nil {
		return 0, errors.Wrapf(err, "coreml flags %q", raw)
	}
	return flags, nil
}
