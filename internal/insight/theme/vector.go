package theme

import "math"

// Cosine returns -1 for mismatched or zero vectors so they never match.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return -1
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Fold returns (c*s + v) / (s+1).
func Fold(c []float64, s int, v []float64) []float64 {
	out := make([]float64, len(c))
	fs := float64(s)
	for i := range c {
		out[i] = (c[i]*fs + v[i]) / (fs + 1)
	}
	return out
}
