package sessions

import (
	"math"
	"sort"
)

type vectorEntry struct {
	chunk int
	vec   []float32
}

// vectorIndex is a brute-force cosine index over one session's chunks
type vectorIndex struct {
	entries []vectorEntry
}

func (ix *vectorIndex) Add(chunk int, vec []float32) {
	ix.entries = append(ix.entries, vectorEntry{chunk: chunk, vec: vec})
}

func (ix *vectorIndex) Len() int { return len(ix.entries) }

// Search returns the chunk numbers of the k most similar vectors, best first.
func (ix *vectorIndex) Search(q []float32, k int) []int {
	type scored struct {
		chunk int
		score float64
	}
	scoreds := make([]scored, 0, len(ix.entries))
	for _, e := range ix.entries {
		scoreds = append(scoreds, scored{chunk: e.chunk, score: cosine(q, e.vec)})
	}
	sort.SliceStable(scoreds, func(i, j int) bool { return scoreds[i].score > scoreds[j].score })

	out := make([]int, 0, min(k, len(scoreds)))
	for i := 0; i < min(k, len(scoreds)); i++ {
		out = append(out, scoreds[i].chunk)
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
