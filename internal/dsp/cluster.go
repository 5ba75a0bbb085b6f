// internal/dsp/cluster.go
package dsp

import (
	"log/slog"

	"github.com/CharonDefalt/keysniff/internal/keystroke"
)

// topPairsLogged is how many of the best-scoring pairs are reported before
// merging starts.
const topPairsLogged = 10

// Clusterer groups strokes into clusters of (presumed) identical keys by
// greedy agglomerative merging over the similarity matrix.
type Clusterer struct {
	// Threshold is the minimum pair correlation considered for a merge
	// (from config: threshold_clustering)
	Threshold float64
	// Logger receives merge diagnostics at debug level; nil disables them
	Logger *slog.Logger
}

// Cluster assigns a cluster ID to every stroke and sets the collection's
// ClusterCount. IDs start out as i+1 per stroke; merged clusters take the
// smaller of the two IDs, so surviving IDs are stable representatives.
// Callers must treat them as opaque.
//
// Pairs are visited in descending correlation order until the score drops
// below Threshold. A merge of clusters Ci and Cj is accepted when the
// average correlation over the merged pair set exceeds 0.4 of the two
// internal averages combined. The pair averages run over every ordered
// (k, q) with both strokes in Ci ∪ Cj, which counts the internal pairs of
// both clusters as well; singleton clusters contribute an internal average
// of zero.
func (cl *Clusterer) Cluster(m SimilarityMatrix, c *keystroke.Collection) {
	n := c.Len()

	nclusters := 0
	for i := 0; i < n; i++ {
		c.Strokes[i].ClusterID = int32(i + 1)
		nclusters++
	}

	pairs := sortedPairs(m)

	if cl.Logger != nil {
		for i := 0; i < topPairsLogged && i < len(pairs); i++ {
			cl.Logger.Debug("top pair",
				slog.Int("rank", i),
				slog.Int("i", pairs[i].i),
				slog.Int("j", pairs[i].j),
				slog.Float64("cc", pairs[i].cc))
		}
	}

	for _, p := range pairs {
		if p.cc < cl.Threshold {
			break
		}

		ci := c.Strokes[p.i].ClusterID
		cj := c.Strokes[p.j].ClusterID
		if ci == cj {
			continue
		}
		cnew := ci
		if cj < cnew {
			cnew = cj
		}

		var nsum, nsumi, nsumj int
		var sumcc, sumcci, sumccj float64
		for k := 0; k < n; k++ {
			ck := c.Strokes[k].ClusterID
			for q := 0; q < n; q++ {
				if q == k {
					continue
				}
				cq := c.Strokes[q].ClusterID
				if (ck == ci || ck == cj) && (cq == ci || cq == cj) {
					sumcc += m[k][q].CC
					nsum++
				}
				if ck == ci && cq == ci {
					sumcci += m[k][q].CC
					nsumi++
				}
				if ck == cj && cq == cj {
					sumccj += m[k][q].CC
					nsumj++
				}
			}
		}
		sumcc /= float64(nsum)
		if nsumi > 0 {
			sumcci /= float64(nsumi)
		}
		if nsumj > 0 {
			sumccj /= float64(nsumj)
		}

		accept := sumcc > 0.4*(sumcci+sumccj)
		if cl.Logger != nil {
			cl.Logger.Debug("merge candidate",
				slog.Int("i", p.i),
				slog.Int("j", p.j),
				slog.Int("n", nsum),
				slog.Float64("cc", sumcc),
				slog.Int("ni", nsumi),
				slog.Float64("cci", sumcci),
				slog.Int("nj", nsumj),
				slog.Float64("ccj", sumccj),
				slog.Bool("accepted", accept))
		}
		if !accept {
			continue
		}

		for k := 0; k < n; k++ {
			if ck := c.Strokes[k].ClusterID; ck == ci || ck == cj {
				c.Strokes[k].ClusterID = cnew
			}
		}
		nclusters--
	}

	c.ClusterCount = nclusters
}
