package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigIsValid(t *testing.T) {
	assert.True(t, DefaultConfig(19).IsValid())
	assert.True(t, DefaultConfig(9).IsValid())

	bad := DefaultConfig(9)
	bad.Features = 1
	assert.False(t, bad.IsValid())

	bad = DefaultConfig(9)
	bad.ActionSpace = 81
	assert.False(t, bad.IsValid())
}

func TestNewWorkerRejectsInvalidConfig(t *testing.T) {
	_, err := NewWorker(Config{})
	assert.Error(t, err)
}

func testPlanes(conf Config) []float32 {
	n := conf.Height * conf.Width
	planes := make([]float32, conf.Features*n)
	for i := 0; i < n; i++ {
		planes[2*n+i] = 1
	}
	return planes
}

func TestInferEmptyBoard(t *testing.T) {
	conf := DefaultConfig(9)
	w, err := NewWorker(conf)
	require.NoError(t, err)

	policy, value, err := w.Infer(testPlanes(conf))
	require.NoError(t, err)
	assert.Len(t, policy, conf.ActionSpace)

	var sum float32
	for _, p := range policy {
		assert.GreaterOrEqual(t, p, float32(0))
		sum += p
	}
	assert.InDelta(t, 1.0, float64(sum), 1e-3, "policy must be normalized")
	assert.Greater(t, policy[conf.ActionSpace-1], float32(0), "pass keeps some mass")
	assert.InDelta(t, 0.0, float64(value), 1e-6, "no stones, no advantage")
}

func TestInferSkipsOccupiedPoints(t *testing.T) {
	conf := DefaultConfig(9)
	w, err := NewWorker(conf)
	require.NoError(t, err)

	n := conf.Height * conf.Width
	planes := testPlanes(conf)
	own := 4*9 + 4 // board center
	planes[own] = 1
	planes[n+0] = 1 // opponent in the corner

	policy, value, err := w.Infer(planes)
	require.NoError(t, err)
	assert.Equal(t, float32(0), policy[own])
	assert.Equal(t, float32(0), policy[0])
	assert.GreaterOrEqual(t, value, float32(-1))
	assert.LessOrEqual(t, value, float32(1))
	// A center stone radiates more influence than a corner stone.
	assert.Greater(t, value, float32(0))
}

func TestInferRejectsWrongInputSize(t *testing.T) {
	w, err := NewWorker(DefaultConfig(9))
	require.NoError(t, err)
	_, _, err = w.Infer(make([]float32, 7))
	assert.Error(t, err)
}

func TestWorkerClose(t *testing.T) {
	conf := DefaultConfig(9)
	w, err := NewWorker(conf)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.Error(t, w.Close(), "double close is an error")

	_, _, err = w.Infer(testPlanes(conf))
	assert.Error(t, err, "a closed worker must not evaluate")
}
