// internal/dsp/similarity.go
package dsp

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/CharonDefalt/keysniff/internal/keystroke"
)

var (
	// ErrInvalidKeyPressWidth indicates the correlation half-width must be positive
	ErrInvalidKeyPressWidth = errors.New("keypress width must be positive")
	// ErrInvalidAlignWindow indicates the alignment search range must be positive
	ErrInvalidAlignWindow = errors.New("align window must be positive")
	// ErrInsufficientMargin indicates a stroke sits too close to a waveform edge
	// for the configured correlation windows
	ErrInsufficientMargin = errors.New("stroke too close to waveform edge for correlation window")
)

// Similarity is one matrix entry: the best normalized cross-correlation of
// an ordered stroke pair and the offset that achieved it.
type Similarity struct {
	CC     float64
	Offset int64
}

// SimilarityMatrix is the dense n×n pairwise similarity of a stroke list.
// Entry [i][j] is computed with stroke i as the fixed anchor, so cc is only
// approximately symmetric and offsets are directional.
type SimilarityMatrix [][]Similarity

// SimilarityEngineConfig holds configuration for the similarity engine.
// All values should come from the application config file.
type SimilarityEngineConfig struct {
	// KeyPressWidth is the correlation window half-width in samples
	// (from config: keypress_width)
	KeyPressWidth int
	// OffsetFromPeak is the offset from detected peak to the start of the
	// correlation window (from config: offset_from_peak)
	OffsetFromPeak int
	// AlignWindow is the ± best-offset search range (from config: align_window)
	AlignWindow int
	// Workers is the row-parallel worker count; 0 means GOMAXPROCS
	// (from config: workers)
	Workers int
}

// SimilarityEngine fills the pairwise similarity matrix of a stroke
// collection. Rows are independent and computed by a worker pool; each
// worker owns its row and the avgCC of that row's stroke, so no locking is
// needed.
type SimilarityEngine struct {
	config SimilarityEngineConfig
}

// NewSimilarityEngine creates a similarity engine with the given
// configuration.
func NewSimilarityEngine(cfg SimilarityEngineConfig) (*SimilarityEngine, error) {
	if cfg.KeyPressWidth <= 0 {
		return nil, ErrInvalidKeyPressWidth
	}
	if cfg.AlignWindow <= 0 {
		return nil, ErrInvalidAlignWindow
	}
	return &SimilarityEngine{config: cfg}, nil
}

// Config returns the current configuration.
func (e *SimilarityEngine) Config() SimilarityEngineConfig {
	return e.config
}

// checkMargins verifies every stroke has room for both the anchor window and
// the widened search window around it.
func (e *SimilarityEngine) checkMargins(c *keystroke.Collection) error {
	w := int64(e.config.KeyPressWidth)
	off := int64(e.config.OffsetFromPeak)
	aw := int64(e.config.AlignWindow)

	for i := range c.Strokes {
		s := &c.Strokes[i]
		lo := s.Position + off - aw
		hi := s.Position + off + 2*w + aw
		if lo < 0 || hi > s.Source.Len() {
			return fmt.Errorf("stroke %d at %d: %w", i, s.Position, ErrInsufficientMargin)
		}
	}
	return nil
}

// Compute fills the n×n similarity matrix for the collection and sets each
// stroke's AvgCC to the mean of its row off the diagonal. Diagonal entries
// are (1.0, 0) by construction.
//
// Entry [i][j] correlates the anchor window of stroke i against the search
// window of stroke j widened by ±AlignWindow. The context is checked
// between rows; on cancellation the matrix contents are unspecified.
func (e *SimilarityEngine) Compute(ctx context.Context, c *keystroke.Collection) (SimilarityMatrix, error) {
	if err := e.checkMargins(c); err != nil {
		return nil, err
	}

	n := c.Len()
	res := make(SimilarityMatrix, n)
	for i := range res {
		res[i] = make([]Similarity, n)
	}

	w := int64(e.config.KeyPressWidth)
	off := int64(e.config.OffsetFromPeak)
	aw := int64(e.config.AlignWindow)

	workers := e.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		if err := gctx.Err(); err != nil {
			break
		}

		i := i
		g.Go(func() error {
			res[i][i] = Similarity{CC: 1.0, Offset: 0}

			si := &c.Strokes[i]
			anchor := si.Source.Slice(si.Position+off, 2*w)

			avgcc := 0.0
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}

				sj := &c.Strokes[j]
				search := sj.Source.Slice(sj.Position+off-aw, 2*w+2*aw)

				bestcc, bestoffset := BestCC(anchor, search, aw)
				res[i][j] = Similarity{CC: bestcc, Offset: bestoffset}
				avgcc += bestcc
			}
			if n > 1 {
				avgcc /= float64(n - 1)
			}
			si.AvgCC = avgcc

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return res, nil
}
