package benchmark

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/inference/providers"
	"github.com/nvr-ai/go-mlbench/logging"
	"github.com/nvr-ai/go-mlbench/models"
	"github.com/nvr-ai/go-mlbench/pacing"
	"github.com/nvr-ai/go-mlbench/report"
)

// DefaultDelay is the pause between samples.
const DefaultDelay = 100 * time.Millisecond

// Config describes one benchmark run.
type Config struct {
	// Name labels the run in results. Empty uses the model name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Model selects the catalog entry to benchmark.
	Model models.Kind `json:"model" yaml:"model" validate:"required"`
	// Engine selects the inference implementation.
	Engine inference.EngineType `json:"engine" yaml:"engine" validate:"required,oneof=synthetic onnx graph"`
	// ModelDir holds <model>.onnx files for the onnx engine.
	ModelDir string `json:"model_dir,omitempty" yaml:"model_dir,omitempty" validate:"required_if=Engine onnx"`
	// ONNXLibraryPath points at the onnxruntime shared library. Empty uses
	// the platform default search path.
	ONNXLibraryPath string `json:"onnx_library_path,omitempty" yaml:"onnx_library_path,omitempty"`
	// Provider tunes the onnxruntime session of the onnx engine.
	Provider providers.Options `json:"provider,omitempty" yaml:"provider,omitempty"`
	// Workload is the busy loop length of the synthetic engine.
	Workload int `json:"workload,omitempty" yaml:"workload,omitempty" validate:"min=0"`

	WarmupInferences int `json:"warmup_inferences" yaml:"warmup_inferences" validate:"min=0"`
	ReportEvery      int `json:"report_every"      yaml:"report_every"      validate:"min=1"`
	SummaryEvery     int `json:"summary_every"     yaml:"summary_every"     validate:"min=1"`
	WindowSize       int `json:"window_size"       yaml:"window_size"       validate:"min=1"`

	// Delay is the pause between samples. JSON carries nanoseconds, YAML
	// accepts duration strings such as "100ms".
	Delay  time.Duration `json:"delay"  yaml:"delay"  validate:"min=0"`
	Pacing pacing.Mode   `json:"pacing" yaml:"pacing" validate:"omitempty,oneof=delay rate"`
	// Iterations bounds the run. Zero runs until interrupted.
	Iterations int `json:"iterations" yaml:"iterations" validate:"min=0"`

	// MetricsAddr enables a Prometheus /metrics listener when set.
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty" validate:"omitempty,hostname_port"`
	// Influx enables the InfluxDB sink when set.
	Influx *report.InfluxConfig `json:"influx,omitempty" yaml:"influx,omitempty"`

	Log logging.Config `json:"log" yaml:"log"`
}

// DefaultConfig returns the configuration of the stock benchmark: the float
// sine model on the synthetic engine, ten warm-up samples, a status row
// every ten samples and a summary every hundred.
func DefaultConfig() *Config {
	return &Config{
		Model:            models.KindSineFloat32,
		Engine:           inference.EngineSynthetic,
		ModelDir:         "models",
		WarmupInferences: DefaultWarmupInferences,
		ReportEvery:      DefaultReportEvery,
		SummaryEvery:     DefaultSummaryEvery,
		WindowSize:       DefaultWindowSize,
		Delay:            DefaultDelay,
		Pacing:           pacing.ModeDelay,
		Log:              logging.Config{Level: "info"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the model exists.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if _, err := models.Lookup(c.Model); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

// ScenarioName returns Name, or the model name when Name is empty.
func (c *Config) ScenarioName() string {
	if c.Name != "" {
		return c.Name
	}
	return string(c.Model)
}

// ControllerArgs maps the cadence settings onto controller arguments.
func (c *Config) ControllerArgs(spec models.Spec) ControllerArgs {
	return ControllerArgs{
		Model:            spec,
		WarmupInferences: c.WarmupInferences,
		ReportEvery:      c.ReportEvery,
		SummaryEvery:     c.SummaryEvery,
		WindowSize:       c.WindowSize,
	}
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

// SaveConfig writes the configuration as YAML or JSON depending on the file
// extension.
func (c *Config) SaveConfig(filename string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// LoadConfig reads a YAML or JSON configuration on top of DefaultConfig and
// validates it.
//
// Arguments:
//   - filename: Path to a .yaml, .yml or .json file.
//
// Returns:
//   - *Config: The merged configuration.
//   - error: A read, decode or validation error.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
