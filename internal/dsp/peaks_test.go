// internal/dsp/peaks_test.go
package dsp

import (
	"errors"
	"testing"

	"github.com/CharonDefalt/keysniff/internal/wave"
)

func TestNewPeakDetector_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PeakDetectorConfig
		wantErr error
	}{
		{"valid", PeakDetectorConfig{ThresholdBackground: 10, HistorySize: 512}, nil},
		{"zero history", PeakDetectorConfig{ThresholdBackground: 10, HistorySize: 0}, ErrInvalidHistorySize},
		{"negative history", PeakDetectorConfig{ThresholdBackground: 10, HistorySize: -1}, ErrInvalidHistorySize},
		{"zero threshold", PeakDetectorConfig{ThresholdBackground: 0, HistorySize: 512}, ErrInvalidBackgroundThreshold},
		{"negative threshold", PeakDetectorConfig{ThresholdBackground: -1, HistorySize: 512}, ErrInvalidBackgroundThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPeakDetector(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewPeakDetector error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPeakDetector_ThreeImpulses(t *testing.T) {
	// Three loud impulses in silence; every one of them sits inside the
	// detection margin and must be found at its exact position.
	const n = 12000
	const k = 512

	samples := make(wave.Waveform, n)
	positions := []int64{2000, 6000, 10000}
	for _, p := range positions {
		samples[p] = 32000
	}

	detector, err := NewPeakDetector(PeakDetectorConfig{ThresholdBackground: 5.0, HistorySize: k})
	if err != nil {
		t.Fatalf("NewPeakDetector failed: %v", err)
	}

	strokes, envelope := detector.Detect(samples.ViewAt(0))

	if strokes.Len() != len(positions) {
		t.Fatalf("detected %d strokes, want %d", strokes.Len(), len(positions))
	}
	for i, want := range positions {
		s := strokes.Strokes[i]
		if s.Position != want {
			t.Errorf("stroke %d at %d, want %d", i, s.Position, want)
		}
		if s.AvgCC != 0 {
			t.Errorf("stroke %d avgCC = %v, want 0", i, s.AvgCC)
		}
		if s.ClusterID != -1 {
			t.Errorf("stroke %d clusterID = %d, want -1", i, s.ClusterID)
		}
	}

	if int64(len(envelope)) != n {
		t.Fatalf("envelope length = %d, want %d", len(envelope), n)
	}
	for _, p := range positions {
		if envelope[p] != 32000 {
			t.Errorf("envelope[%d] = %d, want 32000", p, envelope[p])
		}
	}
}

func TestPeakDetector_MarginExcludesEdges(t *testing.T) {
	// Impulses closer than 2k to either end must be dropped so the
	// correlation stage always has room to window around a stroke.
	const n = 8000
	const k = 512

	samples := make(wave.Waveform, n)
	samples[500] = 32000  // below 2k
	samples[4000] = 32000 // inside the margin
	samples[7500] = 32000 // above n-2k

	detector, err := NewPeakDetector(PeakDetectorConfig{ThresholdBackground: 5.0, HistorySize: k})
	if err != nil {
		t.Fatalf("NewPeakDetector failed: %v", err)
	}

	strokes, _ := detector.Detect(samples.ViewAt(0))

	if strokes.Len() != 1 {
		t.Fatalf("detected %d strokes, want 1", strokes.Len())
	}
	if got := strokes.Strokes[0].Position; got != 4000 {
		t.Errorf("stroke at %d, want 4000", got)
	}
}

func TestPeakDetector_BackgroundThreshold(t *testing.T) {
	// A spike over a steady alternating background is only accepted when
	// it exceeds the rolling average by the configured ratio.
	const n = 2000
	const k = 64

	build := func() wave.Waveform {
		samples := make(wave.Waveform, n)
		for i := range samples {
			if i%2 == 0 {
				samples[i] = 10
			}
		}
		samples[1000] = 50
		return samples
	}

	tests := []struct {
		name        string
		threshold   float64
		wantStrokes int
	}{
		{"spike above threshold", 3.0, 1},
		{"spike below threshold", 20.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector, err := NewPeakDetector(PeakDetectorConfig{ThresholdBackground: tt.threshold, HistorySize: k})
			if err != nil {
				t.Fatalf("NewPeakDetector failed: %v", err)
			}

			strokes, _ := detector.Detect(build().ViewAt(0))
			if strokes.Len() != tt.wantStrokes {
				t.Errorf("detected %d strokes, want %d", strokes.Len(), tt.wantStrokes)
			}
		})
	}
}

func TestPeakDetector_QuietWaveform(t *testing.T) {
	samples := make(wave.Waveform, 10000)

	detector, err := NewPeakDetector(PeakDetectorConfig{ThresholdBackground: 10.0, HistorySize: 512})
	if err != nil {
		t.Fatalf("NewPeakDetector failed: %v", err)
	}

	strokes, envelope := detector.Detect(samples.ViewAt(0))
	if strokes.Len() != 0 {
		t.Errorf("detected %d strokes in silence, want 0", strokes.Len())
	}
	if int64(len(envelope)) != 10000 {
		t.Errorf("envelope length = %d, want 10000", len(envelope))
	}
}

func TestPeakDetector_PositionsStrictlyIncreasing(t *testing.T) {
	// Peaks spread over a long waveform come back chronological and
	// inside the margin, whatever their amplitudes.
	const n = 60000
	const k = 512

	samples := make(wave.Waveform, n)
	for _, p := range []int64{2500, 9000, 17000, 26000, 33000, 41000, 52000} {
		samples[p] = wave.Sample(20000 + p%7000)
	}

	detector, err := NewPeakDetector(PeakDetectorConfig{ThresholdBackground: 5.0, HistorySize: k})
	if err != nil {
		t.Fatalf("NewPeakDetector failed: %v", err)
	}

	strokes, _ := detector.Detect(samples.ViewAt(0))
	if strokes.Len() == 0 {
		t.Fatal("expected strokes")
	}

	prev := int64(-1)
	for i, p := range strokes.Positions() {
		if p <= prev {
			t.Errorf("stroke %d at %d not after previous %d", i, p, prev)
		}
		if p < 2*k || p >= n-2*k {
			t.Errorf("stroke %d at %d outside margin [%d, %d)", i, p, 2*k, n-2*k)
		}
		prev = p
	}
}
