// internal/dsp/peaks.go
// Package dsp implements the keystroke recovery pipeline: peak detection,
// pairwise cross-correlation, position alignment and key clustering.
package dsp

import (
	"errors"

	"github.com/CharonDefalt/keysniff/internal/keystroke"
	"github.com/CharonDefalt/keysniff/internal/wave"
)

var (
	// ErrInvalidHistorySize indicates history size must be positive
	ErrInvalidHistorySize = errors.New("history size must be positive")
	// ErrInvalidBackgroundThreshold indicates the background ratio must be positive
	ErrInvalidBackgroundThreshold = errors.New("background threshold must be positive")
)

// backgroundWindowFactor scales the history size into the width of the
// rolling background average.
const backgroundWindowFactor = 8

// PeakDetectorConfig holds configuration for the keystroke peak detector.
// All values should come from the application config file.
type PeakDetectorConfig struct {
	// ThresholdBackground is the peak-vs-background ratio required to accept
	// a peak (from config: threshold_background)
	ThresholdBackground float64
	// HistorySize is the width of the sliding maximum window in samples
	// (from config: history_size)
	HistorySize int
}

// PeakDetector locates keystroke peaks in a waveform. A single linear pass
// maintains a sliding-window maximum of |samples| and a rolling average of
// the background level; a sample is a keystroke peak when it is the window
// argmax and exceeds the background by the configured ratio.
type PeakDetector struct {
	config PeakDetectorConfig
}

// NewPeakDetector creates a peak detector with the given configuration.
func NewPeakDetector(cfg PeakDetectorConfig) (*PeakDetector, error) {
	if cfg.HistorySize <= 0 {
		return nil, ErrInvalidHistorySize
	}
	if cfg.ThresholdBackground <= 0 {
		return nil, ErrInvalidBackgroundThreshold
	}
	return &PeakDetector{config: cfg}, nil
}

// Config returns the current configuration.
func (d *PeakDetector) Config() PeakDetectorConfig {
	return d.config
}

// Detect scans the waveform and returns the detected strokes in
// chronological order together with the threshold envelope (the sliding
// window maximum at each position, used for visualization).
//
// Emitted positions are at least 2·HistorySize away from both ends so the
// correlation stage always has room to window around them. Detection never
// fails; a quiet waveform yields zero strokes.
func (d *PeakDetector) Detect(v wave.View) (*keystroke.Collection, wave.Waveform) {
	n := v.Len()
	k := int64(d.config.HistorySize)

	res := &keystroke.Collection{}
	envelope := make(wave.Waveform, n)

	abs := wave.Abs(v)

	// Rolling background average over the last 8k samples. The running
	// value is rescaled by the buffer size around each update to keep
	// precision.
	rbSamples := make([]float64, backgroundWindowFactor*d.config.HistorySize)
	rbBegin := 0
	rbAverage := 0.0

	// Monotonic deque over |samples|: back-pop anything not greater than the
	// incoming sample, front-pop indices that left the window. The front is
	// the argmax of (i-k, i].
	que := make([]int64, 0, k)

	for i := int64(0); i < n; i++ {
		// The background estimate takes the newest sample i, half a window
		// ahead of the test position i-k/2. Updates start once i reaches
		// k/2, so the first k/2 samples never enter it.
		if ii := i - k/2; ii >= 0 {
			rbAverage *= float64(len(rbSamples))
			rbAverage -= rbSamples[rbBegin]
			acur := float64(abs[i])
			rbSamples[rbBegin] = acur
			rbAverage += acur
			rbAverage /= float64(len(rbSamples))
			if rbBegin++; rbBegin >= len(rbSamples) {
				rbBegin = 0
			}
		}

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
		if itest >= 2*k && itest < n-2*k && que[0] == itest {
			if acur := float64(abs[itest]); acur > d.config.ThresholdBackground*rbAverage {
				res.Strokes = append(res.Strokes, keystroke.KeyStroke{
					Source:    v,
					Position:  itest,
					AvgCC:     0,
					ClusterID: keystroke.UnassignedCluster,
				})
			}
		}
		envelope[itest] = abs[que[0]]
	}

	return res, envelope
}
