package gallery

import (
	"math"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/facegate/internal/embedding"
)

const indexMaxNeighbors = 16

// Index is an approximate nearest-neighbor view over a gallery. It
// trades exactness for sublinear lookup and is worth building only for
// galleries past IndexThreshold.
type Index struct {
	graph   *hnsw.Graph[string]
	gallery *Gallery
}

// BuildIndex builds an HNSW graph over the gallery's embeddings, keyed
// by identity name.
func BuildIndex(g *Gallery) *Index {
	graph := hnsw.NewGraph[string]()
	graph.M = indexMaxNeighbors
	graph.Ml = 1.0 / float64(indexMaxNeighbors)
	graph.Distance = hnsw.CosineDistance

	for _, id := range g.Identities() {
		if len(id.Embedding) == 0 {
			continue
		}
		graph.Add(hnsw.MakeNode(id.Name, id.Embedding))
	}
	return &Index{graph: graph, gallery: g}
}

// Nearest returns the identity closest to the query embedding. The
// similarity is recomputed exactly from the node's vector, the graph
// only narrows down the candidate.
func (idx *Index) Nearest(query embedding.Embedding) (Identity, float64, bool) {
	neighbors := idx.graph.Search(query, 1)
	if len(neighbors) == 0 {
		return Identity{}, 0, false
	}
	id, ok := idx.gallery.Get(neighbors[0].Key)
	if !ok {
		return Identity{}, 0, false
	}
	return id, embedding.Cosine(query, neighbors[0].Value), true
}

// MatchBest resolves candidates the same way Gallery.MatchBest does,
// but consults the graph instead of scanning every identity.
func (idx *Index) MatchBest(candidates []Candidate, threshold float64) Match {
	if idx.gallery.Empty() {
		return Match{Outcome: OutcomeNoGallery}
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	best := Match{Outcome: OutcomeNoMatch, Score: math.Inf(-1)}
	for _, c := range candidates {
		id, score, ok := idx.Nearest(c.Embedding)
		if !ok {
			continue
		}
		if score > best.Score {
			best = Match{Name: id.Name, Box: c.Box, Score: score}
		}
	}

	if best.Score >= threshold {
		best.Outcome = OutcomeMatched
		return best
	}
	return Match{Outcome: OutcomeNoMatch}
}
