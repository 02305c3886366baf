package gallery

import (
	"sort"
	"sync/atomic"

	"github.com/kozaktomas/facegate/internal/embedding"
)

// Identity is one enrolled person: a display name and the aggregated
// reference embedding built from their sample images.
type Identity struct {
	Name      string              `json:"name"`
	Embedding embedding.Embedding `json:"-"`
	Samples   int                 `json:"samples"`
}

// Gallery is an immutable set of enrolled identities. Build a new one
// and swap it into a Registry instead of mutating in place.
type Gallery struct {
	byName  map[string]Identity
	ordered []Identity
}

// New builds a gallery from identities. Lookup keys are normalized
// names, iteration order is name-sorted for determinism. A later
// duplicate of a normalized name replaces the earlier entry.
func New(identities []Identity) *Gallery {
	g := &Gallery{
		byName: make(map[string]Identity, len(identities)),
	}
	for _, id := range identities {
		key := NormalizeName(id.Name)
		if _, seen := g.byName[key]; !seen {
			g.ordered = append(g.ordered, id)
		} else {
			for i := range g.ordered {
				if NormalizeName(g.ordered[i].Name) == key {
					g.ordered[i] = id
					break
				}
			}
		}
		g.byName[key] = id
	}
	sort.Slice(g.ordered, func(i, j int) bool {
		return g.ordered[i].Name < g.ordered[j].Name
	})
	return g
}

// Len returns the number of enrolled identities.
func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.ordered)
}

// Empty reports whether no identities are enrolled.
func (g *Gallery) Empty() bool {
	return g.Len() == 0
}

// Get looks up an identity by name. The query is normalized the same
// way enrollment names are, so "Jiří" finds "jiri".
func (g *Gallery) Get(name string) (Identity, bool) {
	if g == nil {
		return Identity{}, false
	}
	id, ok := g.byName[NormalizeName(name)]
	return id, ok
}

// Identities returns the enrolled identities sorted by name. The
// returned slice is shared, callers must not modify it.
func (g *Gallery) Identities() []Identity {
	if g == nil {
		return nil
	}
	return g.ordered
}

// IndexThreshold is the gallery size at which a Registry builds an
// approximate nearest-neighbor index. Below it a linear scan is both
// faster and exact.
const IndexThreshold = 64

type snapshot struct {
	gallery *Gallery
	index   *Index
}

// Registry hands out a consistent gallery snapshot to concurrent
// readers while enrollment swaps in new ones. Readers never block and
// never observe a half-built gallery.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// NewRegistry creates a registry holding an empty gallery.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(&snapshot{gallery: New(nil)})
	return r
}

// Swap replaces the active gallery. Large galleries get an index built
// before the swap so readers never pay the build cost.
func (r *Registry) Swap(g *Gallery) {
	if g == nil {
		g = New(nil)
	}
	snap := &snapshot{gallery: g}
	if g.Len() >= IndexThreshold {
		snap.index = BuildIndex(g)
	}
	r.current.Store(snap)
}

// Current returns the active gallery.
func (r *Registry) Current() *Gallery {
	return r.current.Load().gallery
}

// Match resolves detected face candidates against the active gallery,
// using the index when one was built for this snapshot.
func (r *Registry) Match(candidates []Candidate, threshold float64) Match {
	snap := r.current.Load()
	if snap.index != nil {
		return snap.index.MatchBest(candidates, threshold)
	}
	return snap.gallery.MatchBest(candidates, threshold)
}
