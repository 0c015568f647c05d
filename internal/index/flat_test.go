package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlatIndex(t *testing.T) {
	tests := []struct {
		name    string
		dim     int
		wantErr bool
	}{
		{name: "valid dimension", dim: 384, wantErr: false},
		{name: "small dimension", dim: 3, wantErr: false},
		{name: "zero dimension", dim: 0, wantErr: true},
		{name: "negative dimension", dim: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := NewFlatIndex(tt.dim)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dim, idx.Dimension())
			assert.Equal(t, 0, idx.Len())
		})
	}
}

func TestFlatIndex_Add(t *testing.T) {
	idx, err := NewFlatIndex(3)
	require.NoError(t, err)

	require.NoError(t, idx.Add([]float32{1, 0, 0}))
	require.NoError(t, idx.Add([]float32{0, 1, 0}))
	assert.Equal(t, 2, idx.Len())

	err = idx.Add([]float32{1, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 2, idx.Len())
}

func TestFlatIndex_AddCopiesVector(t *testing.T) {
	idx, err := NewFlatIndex(2)
	require.NoError(t, err)

	v := []float32{1, 0}
	require.NoError(t, idx.Add(v))
	v[0] = 99

	ordinals, distances, err := idx.Search([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, ordinals, 1)
	assert.InDelta(t, 0.0, float64(distances[0]), 1e-6)
}

func TestFlatIndex_Search(t *testing.T) {
	idx, err := NewFlatIndex(3)
	require.NoError(t, err)

	require.NoError(t, idx.Add([]float32{1, 0, 0}))
	require.NoError(t, idx.Add([]float32{0, 1, 0}))
	require.NoError(t, idx.Add([]float32{0, 0, 1}))

	t.Run("ascending by distance", func(t *testing.T) {
		ordinals, distances, err := idx.Search([]float32{1, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, ordinals, 3)

		assert.Equal(t, 0, ordinals[0])
		assert.InDelta(t, 0.0, float64(distances[0]), 1e-6)
		// Orthogonal unit vectors sit at squared distance 2.
		assert.InDelta(t, 2.0, float64(distances[1]), 1e-6)
		assert.InDelta(t, 2.0, float64(distances[2]), 1e-6)
		assert.True(t, distances[0] <= distances[1] && distances[1] <= distances[2])
	})

	t.Run("k capped at size", func(t *testing.T) {
		ordinals, _, err := idx.Search([]float32{1, 0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, ordinals, 3)
	})

	t.Run("k smaller than size", func(t *testing.T) {
		ordinals, _, err := idx.Search([]float32{0, 1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, ordinals, 1)
		assert.Equal(t, 1, ordinals[0])
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, _, err := idx.Search([]float32{1, 0}, 1)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestFlatIndex_SearchEmpty(t *testing.T) {
	idx, err := NewFlatIndex(3)
	require.NoError(t, err)

	ordinals, distances, err := idx.Search([]float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, ordinals)
	assert.Empty(t, distances)
}

func TestFlatIndex_Set(t *testing.T) {
	idx, err := NewFlatIndex(2)
	require.NoError(t, err)
	require.NoError(t, idx.Add([]float32{1, 0}))

	require.NoError(t, idx.Set(0, []float32{0, 1}))

	ordinals, distances, err := idx.Search([]float32{0, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, ordinals[0])
	assert.InDelta(t, 0.0, float64(distances[0]), 1e-6)

	assert.Error(t, idx.Set(5, []float32{0, 1}))
	assert.ErrorIs(t, idx.Set(0, []float32{1}), ErrDimensionMismatch)
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, expected: 0},
		{name: "unit apart", a: []float32{0, 0}, b: []float32{1, 0}, expected: 1},
		{name: "orthogonal unit", a: []float32{1, 0}, b: []float32{0, 1}, expected: 2},
		{name: "opposite unit", a: []float32{1, 0}, b: []float32{-1, 0}, expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, float64(tt.expected), float64(squaredL2(tt.a, tt.b)), 1e-6)
		})
	}
}
