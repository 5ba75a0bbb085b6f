// internal/dsp/crosscorr.go
package dsp

import (
	"math"

	"github.com/CharonDefalt/keysniff/internal/wave"
)

// CC computes the Pearson normalized cross-correlation of two equal-length
// views. sum0 and sum02 are the precomputed sum and sum of squares of v0,
// so that one anchor window can be correlated against many shifted windows
// without rescanning it.
//
// The integer sums accumulate in int64 in sample order; the final division
// happens once in float64, which keeps results bit-stable across calls.
// A zero-variance window yields NaN, which every comparison treats as
// worse than any real correlation.
func CC(v0, v1 wave.View, sum0, sum02 int64) float64 {
	var sum1, sum12, sum01 int64

	n := v0.Len()
	if n1 := v1.Len(); n1 < n {
		n = n1
	}

	s0 := v0.Samples
	s1 := v1.Samples
	for is := int64(0); is < n; is++ {
		a0 := int64(s0[is])
		a1 := int64(s1[is])

		sum1 += a1
		sum12 += a1 * a1
		sum01 += a0 * a1
	}

	nom := float64(sum01*n - sum0*sum1)
	den2a := float64(sum02*n - sum0*sum0)
	den2b := float64(sum12*n - sum1*sum1)
	return nom / math.Sqrt(den2a*den2b)
}

// BestCC slides v0 across v1 and returns the highest correlation found and
// the offset that produced it. v1 must be 2·alignWindow samples longer than
// v0; the returned offset is in [-alignWindow, alignWindow), negative when
// the best alignment shifts v1 earlier. Ties keep the first (smallest)
// offset encountered.
func BestCC(v0, v1 wave.View, alignWindow int64) (float64, int64) {
	bestcc := -1.0
	besto := int64(-1)

	n0 := v0.Len()
	sum0, sum02 := wave.Sum(v0)

	for o := int64(0); o < 2*alignWindow; o++ {
		cc := CC(v0, v1.Slice(o, n0), sum0, sum02)
		if cc > bestcc {
			besto = o - alignWindow
			bestcc = cc
		}
	}

	return bestcc, besto
}
