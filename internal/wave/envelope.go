// internal/wave/envelope.go
package wave

// Envelope computes the moving maximum of |samples| over a trailing window
// of nWindow samples, written at the window midpoint. It is the low
// resolution rendering of a long capture: with nWindow equal to the number
// of samples per display pixel the result can be drawn directly.
//
// Positions in the first half window keep their zero value, matching the
// warm-up of the sliding maximum.
func Envelope(v View, nWindow int) Waveform {
	n := v.Len()
	out := make(Waveform, n)

	k := int64(nWindow)
	if k < 1 {
		k = 1
	}

	abs := Abs(v)

	// Monotonic deque of indices; front is the argmax of the current window.
	que := make([]int64, 0, k)
	for i := int64(0); i < n; i++ {
		if i < k {
			for len(que) > 0 && abs[i] >= abs[que[len(que)-1]] {
				que = que[:len(que)-1]
			}
			que = append(que, i)
			continue
		}

		for len(que) > 0 && que[0] <= i-k {
			que = que[1:]
		}
		for len(que) > 0 && abs[i] >= abs[que[len(que)-1]] {
			que = que[:len(que)-1]
		}
		que = append(que, i)

		itest := i - k/2
		out[itest] = abs[que[0]]
	}

	return out
}
