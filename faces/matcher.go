package faces

import (
	"math"
	"sort"
)

// DefaultTolerance is the largest distance still accepted as the same person.
const DefaultTolerance = 0.6

// Default number of index candidates examined per probe; large galleries get candidateShare of their size.
const (
	defaultCandidates = 8
	candidateShare    = 20
)

// Matcher assigns a gallery identity (or Unknown) to a probe embedding.
type Matcher struct {
	Gallery   *Gallery
	Tolerance float64
	// Index, when set, proposes the positions compared first. A probe none of them accepts
	// is compared against the whole gallery, so Unknown is always decided exactly.
	Index      CandidateIndex
	Candidates int
}

func NewMatcher(gallery *Gallery, tolerance float64) *Matcher {
	return &Matcher{Gallery: gallery, Tolerance: tolerance, Candidates: defaultCandidates}
}

// WithIndex returns a copy of the matcher that consults index first.
func (m *Matcher) WithIndex(index CandidateIndex) *Matcher {
	copied := *m
	copied.Index = index
	if copied.Candidates < 1 {
		copied.Candidates = defaultCandidates
	}
	return &copied
}

// Nearest returns the gallery position closest to probe and its distance; -1 for an empty gallery.
// Equal distances resolve to the lowest position. With an index, a position within tolerance
// among the candidates is returned as is.
func (m *Matcher) Nearest(probe Embedding) (int, float64) {
	if candidates := m.candidates(probe); len(candidates) > 0 {
		if best, distance := m.nearestOf(probe, candidates); best >= 0 && m.accepts(distance) {
			return best, distance
		}
	}
	return m.nearestOf(probe, m.all())
}

// Match labels probe with the nearest identity if it is within tolerance, Unknown otherwise.
func (m *Matcher) Match(probe Embedding) MatchResult {
	best, distance := m.Nearest(probe)
	if best < 0 || !m.accepts(distance) {
		return Unknown(distance)
	}
	return Identity(m.Gallery.records[best].Label, distance)
}

// accepts is false for NaN.
func (m *Matcher) accepts(distance float64) bool {
	return distance <= m.Tolerance
}

func (m *Matcher) nearestOf(probe Embedding, positions []int) (int, float64) {
	best, bestDistance := -1, math.Inf(1)
	for _, i := range positions {
		d := Distance(m.Gallery.records[i].Embedding, probe)
		if d < bestDistance || best == -1 {
			best, bestDistance = i, d
		}
	}
	return best, bestDistance
}

// candidates lists the index proposals in ascending order, nil without an index or for a small gallery.
func (m *Matcher) candidates(probe Embedding) []int {
	n := m.Gallery.Len()
	k := max(m.Candidates, n/candidateShare)
	if m.Index == nil || n <= k {
		return nil
	}
	candidates := append([]int(nil), m.Index.Candidates(probe, k)...)
	sort.Ints(candidates)
	return candidates
}

func (m *Matcher) all() []int {
	all := make([]int, m.Gallery.Len())
	for i := range all {
		all[i] = i
	}
	return all
}
