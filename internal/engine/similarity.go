package engine

import "math"

// Cosine returns the cosine similarity between two dense vectors: the dot
// product divided by the product of the magnitudes. When either vector has
// zero magnitude the similarity is 0, not an error. Negative values are
// returned as-is, never clamped.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
