// internal/pipeline/pipeline.go
// Package pipeline wires the recovery stages together: peak detection,
// similarity computation, position refinement and clustering.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CharonDefalt/keysniff/internal/config"
	"github.com/CharonDefalt/keysniff/internal/dsp"
	"github.com/CharonDefalt/keysniff/internal/keystroke"
	"github.com/CharonDefalt/keysniff/internal/wave"
)

// Options selects the pipeline parameters. Zero AdjustPasses skips position
// refinement entirely; a nil Logger disables diagnostics.
type Options struct {
	Detector            dsp.PeakDetectorConfig
	Similarity          dsp.SimilarityEngineConfig
	ThresholdClustering float64
	AdjustPasses        int
	Logger              *slog.Logger
}

// FromSettings maps application settings onto pipeline options.
func FromSettings(s *config.Settings, logger *slog.Logger) Options {
	return Options{
		Detector: dsp.PeakDetectorConfig{
			ThresholdBackground: s.ThresholdBackground,
			HistorySize:         s.HistorySize,
		},
		Similarity: dsp.SimilarityEngineConfig{
			KeyPressWidth:  s.KeyPressWidth,
			OffsetFromPeak: s.OffsetFromPeak,
			AlignWindow:    s.AlignWindow,
			Workers:        s.Workers,
		},
		ThresholdClustering: s.ThresholdClustering,
		AdjustPasses:        s.AdjustPasses,
		Logger:              logger,
	}
}

// Result is the output of a full pipeline run. The matrix corresponds to
// the final stroke positions; Envelope is nil when detection was skipped.
type Result struct {
	Strokes  *keystroke.Collection
	Matrix   dsp.SimilarityMatrix
	Envelope wave.Waveform
}

// Analyze runs detection and then Process over the waveform.
func Analyze(ctx context.Context, v wave.View, opts Options) (*Result, error) {
	detector, err := dsp.NewPeakDetector(opts.Detector)
	if err != nil {
		return nil, fmt.Errorf("peak detector: %w", err)
	}

	strokes, envelope := detector.Detect(v)
	if opts.Logger != nil {
		opts.Logger.Info("peaks detected", slog.Int("strokes", strokes.Len()))
	}

	res, err := Process(ctx, strokes, opts)
	if err != nil {
		return nil, err
	}
	res.Envelope = envelope
	return res, nil
}

// Process runs similarity, refinement and clustering over an existing
// stroke collection (detected here or loaded from a checkpoint). Each
// refinement pass re-anchors positions on the current matrix and then
// recomputes it so the clusterer sees the tightened alignment.
func Process(ctx context.Context, strokes *keystroke.Collection, opts Options) (*Result, error) {
	if strokes.Len() == 0 {
		strokes.ClusterCount = 0
		return &Result{Strokes: strokes, Matrix: dsp.SimilarityMatrix{}}, nil
	}

	engine, err := dsp.NewSimilarityEngine(opts.Similarity)
	if err != nil {
		return nil, fmt.Errorf("similarity engine: %w", err)
	}

	matrix, err := engine.Compute(ctx, strokes)
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}

	for pass := 0; pass < opts.AdjustPasses; pass++ {
		dsp.AlignPositions(strokes, matrix)
		if opts.Logger != nil {
			opts.Logger.Debug("positions adjusted", slog.Int("pass", pass+1))
		}

		matrix, err = engine.Compute(ctx, strokes)
		if err != nil {
			return nil, fmt.Errorf("similarity pass %d: %w", pass+1, err)
		}
	}

	clusterer := &dsp.Clusterer{
		Threshold: opts.ThresholdClustering,
		Logger:    opts.Logger,
	}
	clusterer.Cluster(matrix, strokes)

	if opts.Logger != nil {
		opts.Logger.Info("clustering finished",
			slog.Int("strokes", strokes.Len()),
			slog.Int("clusters", strokes.ClusterCount))
	}

	return &Result{Strokes: strokes, Matrix: matrix}, nil
}
