package embedding

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Embedding
	}{
		{"axis vector", Embedding{3, 0, 0}},
		{"mixed", Embedding{1, 2, 2}},
		{"negative components", Embedding{-1, 1, -1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.in.Clone()
			e.Normalize()
			if math.Abs(e.Norm()-1.0) > 1e-6 {
				t.Errorf("Norm after Normalize = %v, want 1.0", e.Norm())
			}
		})
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	e := Embedding{0, 0, 0}
	e.Normalize()
	for i, v := range e {
		if v != 0 {
			t.Errorf("zero vector changed at index %d: %v", i, v)
		}
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a        Embedding
		b        Embedding
		expected float64
		delta    float64
	}{
		{"identical unit vectors", Embedding{1, 0, 0}, Embedding{1, 0, 0}, 1.0, 0.001},
		{"opposite vectors", Embedding{1, 0, 0}, Embedding{-1, 0, 0}, -1.0, 0.001},
		{"orthogonal vectors", Embedding{1, 0, 0}, Embedding{0, 1, 0}, 0.0, 0.001},
		{"empty vectors", Embedding{}, Embedding{}, 0.0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Cosine(tt.a, tt.b)
			if math.Abs(result-tt.expected) > tt.delta {
				t.Errorf("Cosine(%v, %v) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestMean(t *testing.T) {
	samples := []Embedding{
		{1, 0, 0},
		{0, 1, 0},
	}
	mean := Mean(samples)
	if mean == nil {
		t.Fatal("Mean returned nil for non-empty input")
	}
	if math.Abs(mean.Norm()-1.0) > 1e-6 {
		t.Errorf("Mean norm = %v, want 1.0", mean.Norm())
	}
	// Mean of two orthogonal unit vectors points halfway between them.
	want := float32(1.0 / math.Sqrt2)
	if math.Abs(float64(mean[0]-want)) > 1e-4 || math.Abs(float64(mean[1]-want)) > 1e-4 {
		t.Errorf("Mean = %v, want [%v %v 0]", mean, want, want)
	}
}

func TestMeanEmpty(t *testing.T) {
	if got := Mean(nil); got != nil {
		t.Errorf("Mean(nil) = %v, want nil", got)
	}
}
