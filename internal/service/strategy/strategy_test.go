package strategy

import (
	"testing"

	"changewatch/internal/config"
	"changewatch/internal/similarity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"dnn", "orb", "orb-min", "phash", "pixels"}, Names())
}

func TestNew_DefaultThresholds(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		metric    string
	}{
		{ORB, similarity.DefaultMatchMaxThreshold, "match-ratio-max"},
		{ORBMin, similarity.DefaultMatchMinThreshold, "match-ratio-min"},
		{Pixels, similarity.DefaultCosineThreshold, "cosine"},
		{PHash, similarity.DefaultHashThreshold, "hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(&config.Config{Strategy: tt.name, PixelSize: 16}, nil)
			require.NoError(t, err)
			defer Close(s)

			assert.Equal(t, tt.name, s.Name)
			assert.Equal(t, tt.threshold, s.Threshold)
			assert.Contains(t, s.Metric.Name(), tt.metric)
		})
	}
}

func TestNew_ThresholdOverride(t *testing.T) {
	threshold := 0.8
	s, err := New(&config.Config{Strategy: " Pixels ", Threshold: &threshold, PixelSize: 16}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.8, s.Threshold)
}

func TestNew_ExplicitZeroThreshold(t *testing.T) {
	zero := 0.0
	s, err := New(&config.Config{Strategy: PHash, Threshold: &zero}, nil)
	require.NoError(t, err)
	assert.Zero(t, s.Threshold, "an explicit 0 is kept, not replaced by the default")
}

func TestNew_UnknownStrategy(t *testing.T) {
	_, err := New(&config.Config{Strategy: "sift"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orb-min")
}

func TestNew_DNNMissingModel(t *testing.T) {
	_, err := New(&config.Config{Strategy: DNN, ModelPath: "/nonexistent/model.onnx"}, nil)
	assert.Error(t, err)
}

func TestClose_WithoutCloser(t *testing.T) {
	s, err := New(&config.Config{Strategy: PHash}, nil)
	require.NoError(t, err)
	assert.NoError(t, Close(s))
}
