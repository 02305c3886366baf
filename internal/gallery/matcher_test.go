package gallery

import (
	"math"
	"testing"

	"github.com/kozaktomas/facegate/internal/embedding"
	"github.com/kozaktomas/facegate/internal/geometry"
)

func unit(v ...float32) embedding.Embedding {
	e := embedding.Embedding(v)
	e.Normalize()
	return e
}

func TestMatchBestEmptyGallery(t *testing.T) {
	g := New(nil)
	m := g.MatchBest([]Candidate{{Embedding: unit(1, 0, 0)}}, DefaultThreshold)
	if m.Outcome != OutcomeNoGallery {
		t.Errorf("outcome = %v, want no_gallery", m.Outcome)
	}
}

func TestMatchBestIdenticalEmbedding(t *testing.T) {
	ref := unit(0.2, 0.9, 0.1)
	g := New([]Identity{
		{Name: "alice", Embedding: unit(1, 0, 0)},
		{Name: "bob", Embedding: ref},
	})
	box := geometry.Rect{X: 40, Y: 40, W: 100, H: 100}
	m := g.MatchBest([]Candidate{{Box: box, Embedding: ref.Clone()}}, DefaultThreshold)

	if m.Outcome != OutcomeMatched {
		t.Fatalf("outcome = %v, want matched", m.Outcome)
	}
	if m.Name != "bob" {
		t.Errorf("matched %q, want bob", m.Name)
	}
	if m.Box != box {
		t.Errorf("box = %v, want the candidate's box %v", m.Box, box)
	}
	if math.Abs(m.Score-1.0) > 1e-5 {
		t.Errorf("score = %v, want 1.0", m.Score)
	}
}

func TestMatchBestBelowThreshold(t *testing.T) {
	g := New([]Identity{{Name: "alice", Embedding: unit(1, 0, 0)}})
	// Similarity to alice is about 0.2, under the 0.35 threshold.
	candidate := Candidate{Embedding: unit(0.2, 0.98, 0)}
	m := g.MatchBest([]Candidate{candidate}, DefaultThreshold)

	if m.Outcome != OutcomeNoMatch {
		t.Fatalf("outcome = %v, want no_match", m.Outcome)
	}
	// A near miss must not leak a name or box.
	if m.Name != "" || m.Box != (geometry.Rect{}) || m.Score != 0 {
		t.Errorf("no_match result carries data: %+v", m)
	}
}

func TestMatchBestNoCandidates(t *testing.T) {
	g := New([]Identity{{Name: "alice", Embedding: unit(1, 0, 0)}})
	m := g.MatchBest(nil, DefaultThreshold)
	if m.Outcome != OutcomeNoMatch {
		t.Errorf("outcome = %v, want no_match for zero candidates", m.Outcome)
	}
}

func TestMatchBestPicksBestAcrossCrossProduct(t *testing.T) {
	g := New([]Identity{
		{Name: "alice", Embedding: unit(1, 0, 0)},
		{Name: "bob", Embedding: unit(0, 1, 0)},
	})
	candidates := []Candidate{
		{Box: geometry.Rect{X: 0, Y: 0, W: 50, H: 50}, Embedding: unit(0.7, 0.7, 0)},   // ~0.71 to both
		{Box: geometry.Rect{X: 100, Y: 0, W: 50, H: 50}, Embedding: unit(0.1, 0.99, 0)}, // ~0.995 to bob
	}
	m := g.MatchBest(candidates, DefaultThreshold)
	if m.Outcome != OutcomeMatched || m.Name != "bob" {
		t.Fatalf("match = %+v, want bob via the second candidate", m)
	}
	if m.Box.X != 100 {
		t.Errorf("box = %v, want the second candidate's box", m.Box)
	}
}

func TestMatchBestTieIsDeterministic(t *testing.T) {
	// Two identities with the same embedding. Name order decides, and
	// it must decide the same way every run.
	shared := unit(1, 0, 0)
	g := New([]Identity{
		{Name: "zoe", Embedding: shared},
		{Name: "adam", Embedding: shared},
	})
	candidates := []Candidate{{Embedding: shared.Clone()}}
	first := g.MatchBest(candidates, DefaultThreshold)
	for i := 0; i < 10; i++ {
		if m := g.MatchBest(candidates, DefaultThreshold); m.Name != first.Name {
			t.Fatalf("tie broke differently across runs: %q vs %q", m.Name, first.Name)
		}
	}
	if first.Name != "adam" {
		t.Errorf("tie winner = %q, want the name-sorted first identity", first.Name)
	}
}

func TestMatchBestDefaultThresholdFallback(t *testing.T) {
	g := New([]Identity{{Name: "alice", Embedding: unit(1, 0, 0)}})
	m := g.MatchBest([]Candidate{{Embedding: unit(1, 0, 0)}}, 0)
	if m.Outcome != OutcomeMatched {
		t.Errorf("threshold 0 did not fall back to the default: %+v", m)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{OutcomeNoGallery, "no_gallery"},
		{OutcomeMatched, "matched"},
		{OutcomeNoMatch, "no_match"},
		{Outcome(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}
