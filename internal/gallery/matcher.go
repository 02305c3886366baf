package gallery

import (
	"math"

	"github.com/kozaktomas/facegate/internal/embedding"
	"github.com/kozaktomas/facegate/internal/geometry"
)

// DefaultThreshold is the minimum cosine similarity for a candidate to
// count as a recognized identity.
const DefaultThreshold = 0.35

// Outcome tags how a matching attempt resolved.
type Outcome int

const (
	// OutcomeNoGallery means no identities were enrolled, so matching
	// never ran.
	OutcomeNoGallery Outcome = iota
	// OutcomeMatched means a candidate cleared the similarity threshold.
	OutcomeMatched
	// OutcomeNoMatch means candidates existed but none was similar
	// enough to any enrolled identity.
	OutcomeNoMatch
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoGallery:
		return "no_gallery"
	case OutcomeMatched:
		return "matched"
	case OutcomeNoMatch:
		return "no_match"
	default:
		return "unknown"
	}
}

// Candidate is a detected face offered up for identification.
type Candidate struct {
	Box       geometry.Rect
	Embedding embedding.Embedding
}

// Match is the result of resolving candidates against a gallery. Name,
// Box and Score are meaningful only when Outcome is OutcomeMatched.
type Match struct {
	Outcome Outcome
	Name    string
	Box     geometry.Rect
	Score   float64
}

// MatchBest finds the single best candidate-identity pairing across the
// whole cross product. Threshold <= 0 falls back to DefaultThreshold.
// Ties keep the earlier pairing, and with name-sorted identities that
// makes the result deterministic.
func (g *Gallery) MatchBest(candidates []Candidate, threshold float64) Match {
	if g.Empty() {
		return Match{Outcome: OutcomeNoGallery}
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	best := Match{Outcome: OutcomeNoMatch, Score: math.Inf(-1)}
	for _, c := range candidates {
		for _, id := range g.Identities() {
			score := embedding.Cosine(c.Embedding, id.Embedding)
			if score > best.Score {
				best = Match{Name: id.Name, Box: c.Box, Score: score}
			}
		}
	}

	if best.Score >= threshold {
		best.Outcome = OutcomeMatched
		return best
	}
	return Match{Outcome: OutcomeNoMatch}
}
