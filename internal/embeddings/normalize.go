package embeddings

import "math"

// Normalize scales a vector to unit L2 norm in place and returns it.
//
// Normalization is mandatory for every vector leaving this package: it
// makes squared L2 distance in the index behave monotonically like
// cosine distance, which is the similarity notion the rest of the
// system assumes. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	inv := 1.0 / math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
