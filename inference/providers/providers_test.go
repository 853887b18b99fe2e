package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name    string
		want    Provider
		wantErr bool
	}{
		{"", CPUExecutionProvider, false},
		{"cpu", CPUExecutionProvider, false},
		{"CUDA", CUDAExecutionProvider, false},
		{"openvino", OpenVINOExecutionProvider, false},
		{"tensorrt", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProvider(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGraphLevel(t *testing.T) {
	level, err := graphLevel("")
	require.NoError(t, err)
	assert.Equal(t, ort.GraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended), level)

	level, err = graphLevel(GraphOptimizationDisabled)
	require.NoError(t, err)
	assert.Equal(t, ort.GraphOptimizationLevel(ort.GraphOptimizationLevelDisableAll), level)

	level, err = graphLevel(GraphOptimizationAll)
	require.NoError(t, err)
	assert.Equal(t, ort.GraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll), level)

	_, err = graphLevel("aggressive")
	assert.Error(t, err)
}

func TestNewSessionOptions_RejectsBadLevel(t *testing.T) {
	_, err := NewSessionOptions(Options{GraphOptimization: "aggressive"})
	assert.Error(t, err)
}

func TestCoreMLFlags(t *testing.T) {
	flags, err := coreMLFlags(nil)
	require.NoError(t, err)
	assert.Zero(t, flags)

	flags, err = coreMLFlags(map[string]string{"flags": "3"})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), flags)

	_, err = coreMLFlags(map[string]string{"flags": "gpu"})
	assert.Error(t, err)
}

func TestOptions_IsZero(t *testing.T) {
	assert.True(t, Options{}.IsZero())
	assert.True(t, Options{Provider: CPUExecutionProvider}.IsZero())
	assert.False(t, Options{IntraOpThreads: 2}.IsZero())
	assert.False(t, DefaultOptions().IsZero())
	assert.GreaterOrEqual(t, DefaultOptions().IntraOpThreads, 1)
}
