package benchmark

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/logging"
	"github.com/nvr-ai/go-mlbench/models"
)

func newTestSuite(t *testing.T, sink *recordingSink, opened *[]*scriptedEngine) *Suite {
	t.Helper()
	clock := &fakeClock{}
	return NewSuite(NewSuiteArgs{
		Engines: func(cfg Config) (inference.Engine, error) {
			if cfg.Engine == inference.EngineONNX {
				return nil, errors.New("onnxruntime not installed")
			}
			spec, err := models.Lookup(cfg.Model)
			if err != nil {
				return nil, err
			}
			e := newScriptedEngine(clock, 120, 80)
			e.spec = spec
			*opened = append(*opened, e)
			return e, nil
		},
		Sink:       sink,
		Logger:     logging.Discard(),
		Clock:      clock,
		RunID:      "suite-run",
		OutputPath: t.TempDir(),
	})
}

func TestSuite_RunScenario(t *testing.T) {
	sink := &recordingSink{}
	var opened []*scriptedEngine
	s := newTestSuite(t, sink, &opened)

	sc := NewScenarioBuilder("cnn").WithModel(models.KindCNNFloat32).WithIterations(30).WithPacing("", 0).Build()
	res, err := s.RunScenario(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, "cnn", res.Scenario)
	assert.Equal(t, "suite-run", res.RunID)
	assert.Equal(t, "cnn_float32", res.Model)
	assert.Equal(t, int64(30), res.Samples)
	assert.Equal(t, int64(2), res.Reports)
	assert.Equal(t, 100.0, res.Lifetime.Mean)

	require.Len(t, opened, 1)
	assert.True(t, opened[0].closed)
	assert.Equal(t, "header", sink.events[0])
	assert.Equal(t, "cnn_float32", sink.rows[0].Model)
	assert.Len(t, s.Results(), 1)
}

func TestSuite_RunScenarioRejectsInvalidConfig(t *testing.T) {
	var opened []*scriptedEngine
	s := newTestSuite(t, &recordingSink{}, &opened)

	sc := DefaultConfig()
	sc.ReportEvery = 0
	_, err := s.RunScenario(context.Background(), *sc)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Empty(t, opened)
}

func TestSuite_RunAllContinuesPastFailures(t *testing.T) {
	var opened []*scriptedEngine
	s := newTestSuite(t, &recordingSink{}, &opened)

	s.AddScenario(NewScenarioBuilder("a").WithIterations(5).WithPacing("", 0).Build())
	s.AddScenario(NewScenarioBuilder("b").WithEngine(inference.EngineONNX).WithIterations(5).Build())
	s.AddScenarioSet(&ScenarioSet{Scenarios: []Config{
		NewScenarioBuilder("c").WithModel(models.KindRNNInt8).WithIterations(5).WithPacing("", 0).Build(),
	}})
	assert.Len(t, s.Scenarios(), 3)

	results, err := s.RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "onnxruntime not installed")
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Scenario)
	assert.Equal(t, "c", results[1].Scenario)
}

func TestSuite_SaveResults(t *testing.T) {
	var opened []*scriptedEngine
	s := newTestSuite(t, &recordingSink{}, &opened)

	_, err := s.RunScenario(context.Background(), NewScenarioBuilder("x").WithIterations(3).WithPacing("", 0).Build())
	require.NoError(t, err)

	path, err := s.SaveResults("results.json")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var results []Result
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "x", results[0].Scenario)
	assert.Equal(t, int64(3), results[0].Inferences)
}

func TestSuite_MissingFactory(t *testing.T) {
	s := NewSuite(NewSuiteArgs{Logger: logging.Discard()})
	_, err := s.RunScenario(context.Background(), *DefaultConfig())
	assert.ErrorIs(t, err, ErrMissingCollaborator)
}
