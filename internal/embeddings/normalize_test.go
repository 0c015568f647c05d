package embeddings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{name: "already unit", input: []float32{1, 0, 0}},
		{name: "needs scaling", input: []float32{3, 4, 0}},
		{name: "negative components", input: []float32{-1, 2, -3}},
		{name: "tiny values", input: []float32{1e-4, 1e-4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(tt.input)

			var sumSq float64
			for _, x := range out {
				sumSq += float64(x) * float64(x)
			}
			assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-5)
		})
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	out := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, out)
}

func TestNormalize_PreservesDirection(t *testing.T) {
	out := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(out[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(out[1]), 1e-6)
}
