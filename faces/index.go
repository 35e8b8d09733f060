package faces

import "github.com/coder/hnsw"

// CandidateIndex narrows the set of gallery positions a probe is compared against.
type CandidateIndex interface {
	Candidates(probe Embedding, k int) []int
}

// HNSWIndex is an approximate nearest-neighbour index over gallery positions. It only
// proposes candidates; the matcher recomputes exact distances and falls back to a full scan.
type HNSWIndex struct {
	graph *hnsw.Graph[int]
	dim   int
}

const (
	hnswMaxNeighbors = 16
	hnswEfSearch     = 128
)

// NewHNSWIndex indexes every record whose embedding has the gallery's dimension
// (taken from the first record).
func NewHNSWIndex(g *Gallery) *HNSWIndex {
	idx := &HNSWIndex{}
	if g.Len() == 0 {
		return idx
	}
	graph := hnsw.NewGraph[int]()
	graph.M = hnswMaxNeighbors
	graph.EfSearch = hnswEfSearch
	graph.Distance = hnsw.EuclideanDistance

	idx.dim = len(g.records[0].Embedding)
	for i, r := range g.records {
		if len(r.Embedding) != idx.dim || idx.dim == 0 {
			continue
		}
		graph.Add(hnsw.MakeNode(i, hnsw.Vector(r.Embedding)))
	}
	idx.graph = graph
	return idx
}

func (idx *HNSWIndex) Len() int {
	if idx.graph == nil {
		return 0
	}
	return idx.graph.Len()
}

// Candidates returns up to k gallery positions near probe.
func (idx *HNSWIndex) Candidates(probe Embedding, k int) []int {
	if idx.Len() == 0 || len(probe) != idx.dim || k < 1 {
		return nil
	}
	neighbors := idx.graph.Search(hnsw.Vector(probe), k)
	positions := make([]int, len(neighbors))
	for i, n := range neighbors {
		positions[i] = n.Key
	}
	return positions
}
