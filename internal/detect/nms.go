package detect

import (
	"sort"

	"github.com/kozaktomas/facegate/internal/geometry"
)

// Candidate is a detection that survived the confidence gate and is
// waiting for overlap suppression.
type Candidate struct {
	Box        geometry.Rect
	Confidence float64
}

// ScoreCandidates scores each box and keeps the ones at or above the
// confidence threshold, preserving input order.
func ScoreCandidates(boxes []geometry.Rect, threshold float64) []Candidate {
	candidates := make([]Candidate, 0, len(boxes))
	for _, box := range boxes {
		score := Confidence(box)
		if score >= threshold {
			candidates = append(candidates, Candidate{Box: box, Confidence: score})
		}
	}
	return candidates
}

// Suppress runs greedy non-maximum suppression over the candidates and
// returns the kept boxes. Candidates are taken largest-area first, and
// every remaining candidate whose IoU with the kept box reaches the
// overlap threshold is discarded.
func Suppress(candidates []Candidate, overlapThreshold float64) []geometry.Rect {
	if len(candidates) == 0 {
		return nil
	}

	remaining := make([]Candidate, len(candidates))
	copy(remaining, candidates)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].Box.Area() > remaining[j].Box.Area()
	})

	var kept []geometry.Rect
	for len(remaining) > 0 {
		best := remaining[0]
		kept = append(kept, best.Box)

		next := remaining[:0]
		for _, c := range remaining[1:] {
			if geometry.Overlap(best.Box, c.Box) < overlapThreshold {
				next = append(next, c)
			}
		}
		remaining = next
	}
	return kept
}
