// internal/wave/wave.go
// Package wave provides the sample buffer types and primitive sample
// operations shared by the detection and correlation stages.
package wave

import "errors"

var (
	// ErrViewOutOfRange indicates a requested view does not fit in the buffer
	ErrViewOutOfRange = errors.New("view range outside waveform bounds")
)

// Sample is a single signed amplitude value. Recordings are normalized so
// the loudest sample is ±32000, which leaves headroom in 64-bit sums for
// waveforms up to 2^31 samples.
type Sample = int32

// Waveform is an owned, contiguous sequence of samples at a fixed rate.
type Waveform []Sample

// View is a non-owning read-only window into a Waveform. The underlying
// buffer must outlive every view into it. Views are cheap to copy and
// re-slice.
type View struct {
	Samples []Sample
}

// Len returns the number of samples visible through the view.
func (v View) Len() int64 {
	return int64(len(v.Samples))
}

// ViewAt returns a view starting at idx and running to the end of the buffer.
func (w Waveform) ViewAt(idx int64) View {
	return View{Samples: w[idx:]}
}

// CheckRange reports whether [idx, idx+n) lies inside the waveform.
func (w Waveform) CheckRange(idx, n int64) error {
	if idx < 0 || n < 0 || idx+n > int64(len(w)) {
		return ErrViewOutOfRange
	}
	return nil
}

// Slice returns a sub-view by offset and length relative to the view start.
func (v View) Slice(idx, n int64) View {
	return View{Samples: v.Samples[idx : idx+n]}
}

// Sum returns the sum of samples and the sum of their squares over the view.
// Both accumulate in int64; no overflow occurs for waveforms up to 2^31
// samples of ±2^15 amplitude.
func Sum(v View) (sum, sum2 int64) {
	for _, a := range v.Samples {
		a64 := int64(a)
		sum += a64
		sum2 += a64 * a64
	}
	return sum, sum2
}

// Abs returns a new waveform holding the elementwise absolute value of the
// view.
func Abs(v View) Waveform {
	out := make(Waveform, len(v.Samples))
	for i, a := range v.Samples {
		if a < 0 {
			a = -a
		}
		out[i] = a
	}
	return out
}
