package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/models"
	"github.com/nvr-ai/go-mlbench/pacing"
)

// ScenarioBuilder helps build run configurations with a fluent API.
type ScenarioBuilder struct {
	config Config
}

// NewScenarioBuilder creates a builder seeded with DefaultConfig.
func NewScenarioBuilder(name string) *ScenarioBuilder {
	config := DefaultConfig()
	config.Name = name
	return &ScenarioBuilder{config: *config}
}

// WithModel sets the model kind.
func (sb *ScenarioBuilder) WithModel(kind models.Kind) *ScenarioBuilder {
	sb.config.Model = kind
	return sb
}

// WithEngine sets the engine type.
func (sb *ScenarioBuilder) WithEngine(engine inference.EngineType) *ScenarioBuilder {
	sb.config.Engine = engine
	return sb
}

// WithModelDir sets the directory holding ONNX model files.
func (sb *ScenarioBuilder) WithModelDir(dir string) *ScenarioBuilder {
	sb.config.ModelDir = dir
	return sb
}

// WithIterations sets the number of inference attempts.
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.config.Iterations = iterations
	return sb
}

// WithWarmup sets the number of warm-up inferences.
func (sb *ScenarioBuilder) WithWarmup(warmup int) *ScenarioBuilder {
	sb.config.WarmupInferences = warmup
	return sb
}

// WithCadence sets the status and summary intervals.
func (sb *ScenarioBuilder) WithCadence(reportEvery, summaryEvery int) *ScenarioBuilder {
	sb.config.ReportEvery = reportEvery
	sb.config.SummaryEvery = summaryEvery
	return sb
}

// WithWindowSize sets the standard deviation window.
func (sb *ScenarioBuilder) WithWindowSize(size int) *ScenarioBuilder {
	sb.config.WindowSize = size
	return sb
}

// WithPacing sets the pacing mode and the pause between samples.
func (sb *ScenarioBuilder) WithPacing(mode pacing.Mode, delay time.Duration) *ScenarioBuilder {
	sb.config.Pacing = mode
	sb.config.Delay = delay
	return sb
}

// Build returns the configured scenario.
func (sb *ScenarioBuilder) Build() Config {
	return sb.config
}

// ScenarioSet represents a collection of related runs.
type ScenarioSet struct {
	Name        string   `json:"name"        yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Scenarios   []Config `json:"scenarios"   yaml:"scenarios"`
}

// PredefinedScenarios contains common benchmark scenario sets.
type PredefinedScenarios struct{}

// GetCatalogScenarios runs every catalog model on one engine.
func (ps *PredefinedScenarios) GetCatalogScenarios(engine inference.EngineType, iterations int) *ScenarioSet {
	scenarios := make([]Config, 0, len(models.Kinds()))
	for _, kind := range models.Kinds() {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("%s_%s", engine, kind)).
			WithModel(kind).
			WithEngine(engine).
			WithIterations(iterations).
			WithPacing(pacing.ModeDelay, 0).
			Build())
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Catalog - %s", engine),
		Description: fmt.Sprintf("Runs every catalog model on the %s engine", engine),
		Scenarios:   scenarios,
	}
}

// GetQuantizationScenarios pairs the float32 and int8 variants of each
// model family that ships both.
func (ps *PredefinedScenarios) GetQuantizationScenarios(engine inference.EngineType, iterations int) *ScenarioSet {
	pairs := [][2]models.Kind{
		{models.KindSineFloat32, models.KindSineInt8},
		{models.KindCNNFloat32, models.KindCNNInt8},
		{models.KindRNNFloat32, models.KindRNNInt8},
	}

	scenarios := make([]Config, 0, 2*len(pairs))
	for _, pair := range pairs {
		for _, kind := range pair {
			scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("quant_%s", kind)).
				WithModel(kind).
				WithEngine(engine).
				WithIterations(iterations).
				WithPacing(pacing.ModeDelay, 0).
				Build())
		}
	}

	return &ScenarioSet{
		Name:        "Quantization Comparison",
		Description: "Compares float32 and int8 variants of each model family",
		Scenarios:   scenarios,
	}
}

// GetEngineScenarios runs one model across every engine.
func (ps *PredefinedScenarios) GetEngineScenarios(kind models.Kind, iterations int) *ScenarioSet {
	scenarios := make([]Config, 0, len(inference.Engines))
	for _, engine := range inference.Engines {
		scenarios = append(scenarios, NewScenarioBuilder(fmt.Sprintf("engine_%s_%s", engine, kind)).
			WithModel(kind).
			WithEngine(engine).
			WithIterations(iterations).
			WithPacing(pacing.ModeDelay, 0).
			Build())
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Engine Comparison - %s", kind),
		Description: fmt.Sprintf("Compares inference engines on the %s model", kind),
		Scenarios:   scenarios,
	}
}

// SaveScenarioSet saves a scenario set as YAML or JSON depending on the file
// extension.
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(filename) {
		data, err = yaml.Marshal(scenarioSet)
	} else {
		data, err = json.MarshalIndent(scenarioSet, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal scenario set")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write scenario file")
	}
	return nil
}

// LoadScenarioSet loads a scenario set. Every scenario starts from
// DefaultConfig, so files only need to name what differs.
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	var raw struct {
		Name        string      `json:"name"        yaml:"name"`
		Description string      `json:"description" yaml:"description"`
		Scenarios   []rawConfig `json:"scenarios"   yaml:"scenarios"`
	}
	if isYAML(filename) {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal scenario set")
	}

	set := &ScenarioSet{Name: raw.Name, Description: raw.Description}
	for i, sc := range raw.Scenarios {
		if err := sc.Validate(); err != nil {
			return nil, errors.Wrapf(err, "scenario %d (%s)", i, sc.ScenarioName())
		}
		set.Scenarios = append(set.Scenarios, Config(sc))
	}
	return set, nil
}

// rawConfig decodes onto DefaultConfig instead of the zero value.
type rawConfig Config

func (rc *rawConfig) UnmarshalJSON(data []byte) error {
	c := DefaultConfig()
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}
	*rc = rawConfig(*c)
	return nil
}

func (rc *rawConfig) UnmarshalYAML(node *yaml.Node) error {
	c := DefaultConfig()
	if err := node.Decode(c); err != nil {
		return err
	}
	*rc = rawConfig(*c)
	return nil
}

func (rc *rawConfig) Validate() error {
	c := Config(*rc)
	return c.Validate()
}

func (rc *rawConfig) ScenarioName() string {
	c := Config(*rc)
	return c.ScenarioName()
}
