package reindex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorMagnitude(v []float32) float64 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

func TestNormalizeVectorUnitLength(t *testing.T) {
	normalized := NormalizeVector([]float32{3, 4})
	require.Len(t, normalized, 2)
	assert.InDelta(t, 1.0, vectorMagnitude(normalized), 1e-6)
	assert.InDelta(t, 0.6, float64(normalized[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(normalized[1]), 1e-6)
}

func TestNormalizeVectorZeroVector(t *testing.T) {
	normalized := NormalizeVector([]float32{0, 0, 0})
	require.Len(t, normalized, 3)
	for _, val := range normalized {
		assert.Zero(t, val)
	}
}

func TestNormalizeVectorEmpty(t *testing.T) {
	assert.Empty(t, NormalizeVector(nil))
}

func TestNormalizeVectorDoesNotMutateInput(t *testing.T) {
	input := []float32{3, 4}
	_ = NormalizeVector(input)
	assert.Equal(t, []float32{3, 4}, input)
}
