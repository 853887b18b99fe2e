package engines

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-mlbench/benchmark"
	"github.com/nvr-ai/go-mlbench/inference"
	"github.com/nvr-ai/go-mlbench/inference/providers"
	"github.com/nvr-ai/go-mlbench/logging"
	"github.com/nvr-ai/go-mlbench/models"
	"github.com/nvr-ai/go-mlbench/report"
)

func lookup(t *testing.T, kind models.Kind) models.Spec {
	t.Helper()
	spec, err := models.Lookup(kind)
	require.NoError(t, err)
	return spec
}

func TestSyntheticEngine(t *testing.T) {
	e := NewSyntheticEngine(lookup(t, models.KindSineInt8), 0, 3)
	ctx := context.Background()

	require.NoError(t, e.Invoke(ctx))
	// sum of i^2 for i < 500
	assert.Equal(t, int64(499*500*999/6), e.Result())
	require.NoError(t, e.Invoke(ctx))
	assert.ErrorIs(t, e.Invoke(ctx), inference.ErrInvokeFailed)
	require.NoError(t, e.Invoke(ctx))

	assert.Equal(t, uint64(SyntheticArenaBytes), e.ArenaBytes())
	assert.Equal(t, "sine_int8", e.Spec().Name)
	assert.NoError(t, e.Close())
}

func TestSyntheticEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewSyntheticEngine(lookup(t, models.KindSineFloat32), 10, 0)
	assert.ErrorIs(t, e.Invoke(ctx), context.Canceled)
}

func TestGraphEngine_FloatModels(t *testing.T) {
	for _, kind := range []models.Kind{models.KindSineFloat32, models.KindCNNFloat32, models.KindRNNFloat32} {
		t.Run(string(kind), func(t *testing.T) {
			spec := lookup(t, kind)
			e, err := NewGraphEngine(spec, 0)
			require.NoError(t, err)
			defer e.Close()

			for i := 0; i < 3; i++ {
				input, err := inference.Synthesize(spec, i)
				require.NoError(t, err)
				require.NoError(t, e.SetInput(input))
				require.NoError(t, e.Invoke(context.Background()))
				assert.Len(t, e.Output(), spec.OutputSize())
			}

			want := 4 * (spec.InputSize()*16 + 16*16 + 16*spec.OutputSize() + spec.InputSize() + spec.OutputSize())
			assert.Equal(t, uint64(want), e.ArenaBytes())
		})
	}
}

func TestGraphEngine_RejectsInt8(t *testing.T) {
	_, err := NewGraphEngine(lookup(t, models.KindCNNInt8), 8)
	assert.ErrorIs(t, err, inference.ErrQuantizationUnsupported)
}

func TestGraphEngine_InputSizeMismatch(t *testing.T) {
	e, err := NewGraphEngine(lookup(t, models.KindRNNFloat32), 4)
	require.NoError(t, err)
	defer e.Close()

	sine, err := inference.Synthesize(lookup(t, models.KindSineFloat32), 0)
	require.NoError(t, err)
	assert.Error(t, e.SetInput(sine))
}

func TestConcreteShape(t *testing.T) {
	assert.Equal(t, []int64{1, 96, 96, 1}, []int64(concreteShape([]int64{-1, 96, 96, 1})))
	assert.Equal(t, []int64{1, 1}, []int64(concreteShape([]int64{0, 1})))
}

func TestCopyInto(t *testing.T) {
	dst := make([]int8, 2)
	require.NoError(t, copyInto(dst, []int8{3, 4}))
	assert.Equal(t, []int8{3, 4}, dst)
	assert.Error(t, copyInto(dst, []int8{1}))
}

func TestNew(t *testing.T) {
	cfg := benchmark.DefaultConfig()

	e, err := New(*cfg)
	require.NoError(t, err)
	assert.IsType(t, &SyntheticEngine{}, e)

	cfg.Engine = inference.EngineGraph
	e, err = New(*cfg)
	require.NoError(t, err)
	assert.IsType(t, &GraphEngine{}, e)
	require.NoError(t, e.Close())

	cfg.Model = models.KindSineInt8
	_, err = New(*cfg)
	assert.ErrorIs(t, err, inference.ErrQuantizationUnsupported)

	cfg.Model = "nope"
	_, err = New(*cfg)
	assert.ErrorIs(t, err, models.ErrUnknownModel)

	cfg.Model = models.KindSineFloat32
	cfg.Engine = "tflite"
	_, err = New(*cfg)
	assert.Error(t, err)
}

func TestNew_ONNXMissingModel(t *testing.T) {
	cfg := benchmark.DefaultConfig()
	cfg.Engine = inference.EngineONNX
	cfg.ModelDir = t.TempDir()

	_, err := New(*cfg)
	assert.Error(t, err)
}

func TestSuite_SyntheticAndGraph(t *testing.T) {
	var out bytes.Buffer
	suite := benchmark.NewSuite(benchmark.NewSuiteArgs{
		Engines: New,
		Sink:    report.NewCSVSink(&out),
		Logger:  logging.Discard(),
	})

	ps := &benchmark.PredefinedScenarios{}
	for _, sc := range ps.GetEngineScenarios(models.KindSineFloat32, 30).Scenarios {
		if sc.Engine == inference.EngineONNX {
			continue
		}
		suite.AddScenario(sc)
	}

	results, err := suite.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, int64(30), r.Samples)
		assert.Equal(t, int64(2), r.Reports)
	}
	assert.Contains(t, out.String(), report.FormatHeader())
}

// TestONNXEngine_Runtime runs a real model when the runtime and model files
// are available, e.g. ONNXRUNTIME_LIB=/usr/lib/libonnxruntime.so
// MLBENCH_MODEL_DIR=./models.
func TestONNXEngine_Runtime(t *testing.T) {
	lib, dir := os.Getenv("ONNXRUNTIME_LIB"), os.Getenv("MLBENCH_MODEL_DIR")
	if lib == "" || dir == "" {
		t.Skip("ONNXRUNTIME_LIB and MLBENCH_MODEL_DIR not set")
	}
	if _, err := os.Stat(filepath.Join(dir, "sine_float32.onnx")); err != nil {
		t.Skipf("sine model not found: %v", err)
	}
	defer CleanupEnvironment()

	model, err := models.Load(models.KindSineFloat32, dir)
	require.NoError(t, err)

	e, err := NewONNXEngine(model, lib, providers.DefaultOptions())
	require.NoError(t, err)
	defer e.Close()

	input, err := inference.Synthesize(model.Spec, 25)
	require.NoError(t, err)
	require.NoError(t, e.SetInput(input))
	require.NoError(t, e.Invoke(context.Background()))
	assert.Len(t, e.Output(), 1)
	assert.Greater(t, e.ArenaBytes(), uint64(0))
}
