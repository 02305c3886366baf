package detect

import "github.com/kozaktomas/facegate/internal/geometry"

// Confidence computes a heuristic plausibility score in [0, 1] for a raw
// candidate rectangle. It averages an aspect-ratio term and an area
// term, each bucketed. This is a cheap pre-suppression filter, not a
// model-calibrated probability.
func Confidence(r geometry.Rect) float64 {
	area := r.W * r.H

	// An upright face is near-square. A zero height counts as ratio 0.
	ratio := 0.0
	if r.H > 0 {
		ratio = float64(r.W) / float64(r.H)
	}
	ratioScore := 0.5
	if ratio >= 0.8 && ratio <= 1.3 {
		ratioScore = 1.0
	}

	var areaScore float64
	switch {
	case area >= 1000 && area <= 50000:
		areaScore = 1.0
	case area >= 500 && area <= 100000:
		areaScore = 0.8
	default:
		areaScore = 0.3
	}

	return (ratioScore + areaScore) / 2
}
