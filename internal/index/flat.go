package index

import (
	"fmt"
	"sort"
)

// FlatIndex is an exact brute-force nearest-neighbor index over vectors
// of a fixed dimension. Vectors are append-only; the Nth vector added
// lives at ordinal N. Removal requires rebuilding the whole index.
//
// The zero value is not usable; construct with NewFlatIndex.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfig, dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// Dimension returns the vector dimension of the index.
func (f *FlatIndex) Dimension() int {
	return f.dim
}

// Len returns the number of vectors in the index.
func (f *FlatIndex) Len() int {
	return len(f.vectors)
}

// Add appends a vector to the index at the next ordinal position.
// The vector is copied, so the caller may reuse the slice.
func (f *FlatIndex) Add(vector []float32) error {
	if len(vector) != f.dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.dim, len(vector))
	}
	v := make([]float32, f.dim)
	copy(v, vector)
	f.vectors = append(f.vectors, v)
	return nil
}

// Set replaces the vector at an existing ordinal position.
func (f *FlatIndex) Set(ordinal int, vector []float32) error {
	if ordinal < 0 || ordinal >= len(f.vectors) {
		return fmt.Errorf("ordinal %d out of range [0,%d)", ordinal, len(f.vectors))
	}
	if len(vector) != f.dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.dim, len(vector))
	}
	v := make([]float32, f.dim)
	copy(v, vector)
	f.vectors[ordinal] = v
	return nil
}

// match is an ordinal with its distance to the query.
type match struct {
	ordinal  int
	distance float32
}

// Search scans every stored vector and returns the ordinals of the k
// nearest to the query, ascending by squared L2 distance. With zero
// stored vectors it returns empty slices, never an error.
func (f *FlatIndex) Search(query []float32, k int) ([]int, []float32, error) {
	if len(query) != f.dim {
		return nil, nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, f.dim, len(query))
	}
	if k <= 0 || len(f.vectors) == 0 {
		return []int{}, []float32{}, nil
	}
	if k > len(f.vectors) {
		k = len(f.vectors)
	}

	matches := make([]match, len(f.vectors))
	for i, v := range f.vectors {
		matches[i] = match{ordinal: i, distance: squaredL2(query, v)}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	ordinals := make([]int, k)
	distances := make([]float32, k)
	for i := 0; i < k; i++ {
		ordinals[i] = matches[i].ordinal
		distances[i] = matches[i].distance
	}
	return ordinals, distances, nil
}

// Vectors returns the stored vectors in ordinal order. The returned
// slice shares backing arrays with the index and must not be mutated.
func (f *FlatIndex) Vectors() [][]float32 {
	return f.vectors
}

// squaredL2 computes squared Euclidean distance between two vectors of
// equal length. Squared distance preserves ordering and avoids the sqrt.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
