// Package embedding holds the face feature vector type, the cosine
// similarity used for identity matching, and the robust mean aggregation
// used during enrollment.
package embedding

import "math"

// Embedding is a fixed-length face feature vector. Matching assumes
// unit-norm vectors; Normalize enforces that invariant.
type Embedding []float32

// Norm returns the L2 norm of the vector.
func (e Embedding) Norm() float64 {
	var sum float64
	for _, v := range e {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalize scales e to unit L2 norm in place.
// A zero vector is left unchanged.
func (e Embedding) Normalize() {
	n := e.Norm()
	if n == 0 {
		return
	}
	for i := range e {
		e[i] = float32(float64(e[i]) / n)
	}
}

// Clone returns an independent copy of the vector.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// Cosine returns the cosine similarity of two unit vectors, which is
// their dot product. Mismatched lengths compare the common prefix.
func Cosine(a, b Embedding) float64 {
	n := min(len(a), len(b))
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Mean returns the L2-normalized element-wise mean of the samples.
// Returns nil for an empty input.
func Mean(samples []Embedding) Embedding {
	if len(samples) == 0 {
		return nil
	}
	dim := len(samples[0])
	sum := make([]float64, dim)
	for _, s := range samples {
		for i := 0; i < min(dim, len(s)); i++ {
			sum[i] += float64(s[i])
		}
	}
	mean := make(Embedding, dim)
	for i := range mean {
		mean[i] = float32(sum[i] / float64(len(samples)))
	}
	mean.Normalize()
	return mean
}
