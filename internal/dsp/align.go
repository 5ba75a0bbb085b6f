// internal/dsp/align.go
package dsp

import (
	"sort"

	"github.com/CharonDefalt/keysniff/internal/keystroke"
)

// ccPair is one unordered stroke pair (i < j) with its similarity score.
type ccPair struct {
	i, j int
	cc   float64
}

// sortedPairs enumerates all pairs (i, j), i < j, ordered by descending cc.
// Ties break by (i, j) lexicographic order so runs are deterministic.
func sortedPairs(m SimilarityMatrix) []ccPair {
	n := len(m)

	pairs := make([]ccPair, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, ccPair{i: i, j: j, cc: m[i][j].CC})
		}
	}

	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].cc != pairs[b].cc {
			return pairs[a].cc > pairs[b].cc
		}
		if pairs[a].i != pairs[b].i {
			return pairs[a].i < pairs[b].i
		}
		return pairs[a].j < pairs[b].j
	})

	return pairs
}

// AlignPositions refines stroke positions using the offsets discovered
// during similarity computation. Pairs are visited in order of descending
// correlation; each stroke is re-anchored exactly once, against its
// highest-confidence already-anchored partner. The first pair fixes two
// strokes at once, so the walk forms a spanning tree over the collection.
//
// Positions move by at most the alignment window. The matrix is left
// untouched; recompute it to see the tightened alignment.
func AlignPositions(c *keystroke.Collection, m SimilarityMatrix) {
	n := c.Len()

	used := make([]bool, n)
	nused := 0

	for _, p := range sortedPairs(m) {
		k0, k1 := p.i, p.j
		if used[k0] && used[k1] {
			continue
		}

		if !used[k1] {
			c.Strokes[k1].Position += m[k0][k1].Offset
		} else {
			c.Strokes[k0].Position -= m[k0][k1].Offset
		}

		if !used[k0] {
			used[k0] = true
			nused++
		}
		if !used[k1] {
			used[k1] = true
			nused++
		}

		if nused == n {
			break
		}
	}
}
