package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSoftmaxSumsToOne(t *testing.T) {
	x := []float32{1, 2, 3, 4}
	Softmax(x)
	var sum float32
	for _, v := range x {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestSoftmaxStableUnderLargeValues(t *testing.T) {
	x := []float32{1000, 1000, 1000}
	Softmax(x)
	for _, v := range x {
		assert.False(t, math.IsNaN(float64(v)))
		assert.InDelta(t, 1.0/3.0, v, 1e-4)
	}
}

func TestMaskedSoftmaxZeroesFutureTokens(t *testing.T) {
	x := []float32{1, 1, 1, 1}
	MaskedSoftmax(x, 1)
	assert.Greater(t, x[0], float32(0))
	assert.Greater(t, x[1], float32(0))
	assert.Equal(t, float32(0), x[2])
	assert.Equal(t, float32(0), x[3])
}
