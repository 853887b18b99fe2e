package providers

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// NewSessionOptions builds native session options from o. The onnxruntime
// environment must already be initialized. The caller destroys the result
// once the session is created.
//
// Arguments:
//   - o: The session tuning to apply.
//
// Returns:
//   - *ort.SessionOptions: Configured session options.
//   - error: An invalid setting or a provider the runtime does not support.
func NewSessionOptions(o Options) (*ort.SessionOptions, error) {
	level, err := graphLevel(o.GraphOptimization)
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}

	if err := configure(options, o, level); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func configure(options *ort.SessionOptions, o Options, level ort.GraphOptimizationLevel) error {
	if err := options.SetGraphOptimizationLevel(level); err != nil {
		return errors.Wrap(err, "set graph optimization level")
	}
	if o.Parallel {
		if err := options.SetExecutionMode(ort.ExecutionModeParallel); err != nil {
			return errors.Wrap(err, "set execution mode")
		}
	}
	if o.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(o.IntraOpThreads); err != nil {
			return errors.Wrap(err, "set intra-op threads")
		}
	}
	if o.InterOpThreads > 0 {
		if err := options.SetInterOpNumThreads(o.InterOpThreads); err != nil {
			return errors.Wrap(err, "set inter-op threads")
		}
	}
	return appendProvider(options, o)
}

func appendProvider(options *ort.SessionOptions, o Options) error {
	switch o.Provider {
	case CPUExecutionProvider, "":
		// always available
		return nil

	case CUDAExecutionProvider:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return errors.Wrap(err, "create cuda provider options")
		}
		defer cuda.Destroy()
		if len(o.ProviderOptions) > 0 {
			if err := cuda.Update(o.ProviderOptions); err != nil {
				return errors.Wrap(err, "update cuda provider options")
			}
		}
		return errors.Wrap(options.AppendExecutionProviderCUDA(cuda), "append cuda provider")

	case CoreMLExecutionProvider:
		flags, err := coreMLFlags(o.ProviderOptions)
		if err != nil {
			return err
		}
		return errors.Wrap(options.AppendExecutionProviderCoreML(flags), "append coreml provider")

	case OpenVINOExecutionProvider:
		return errors.Wrap(options.AppendExecutionProviderOpenVINO(o.ProviderOptions), "append openvino provider")

	default:
		return errors.Errorf("unsupported execution provider: %s", o.Provider)
	}
}
