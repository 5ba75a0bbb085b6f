// internal/keystroke/keystroke.go
// Package keystroke defines the detected-stroke model shared by every
// pipeline stage, and the checkpoint format for stroke lists.
package keystroke

import "github.com/CharonDefalt/keysniff/internal/wave"

// UnassignedCluster is the cluster ID of a stroke before clustering runs.
const UnassignedCluster = -1

// KeyStroke is a single detected keystroke. Position is a sample index into
// Source; AvgCC and ClusterID are filled in by the similarity and clustering
// stages.
type KeyStroke struct {
	// Source is the waveform the position refers to
	Source wave.View
	// Position is the sample index of the detected peak
	Position int64
	// AvgCC is the mean normalized cross-correlation against all other strokes
	AvgCC float64
	// ClusterID groups strokes believed to come from the same physical key
	ClusterID int32
}

// Collection is a chronologically ordered list of strokes. ClusterCount is
// populated by the clustering stage.
type Collection struct {
	Strokes      []KeyStroke
	ClusterCount int
}

// Len returns the number of strokes.
func (c *Collection) Len() int {
	return len(c.Strokes)
}

// Positions returns the stroke positions in order.
func (c *Collection) Positions() []int64 {
	out := make([]int64, len(c.Strokes))
	for i := range c.Strokes {
		out[i] = c.Strokes[i].Position
	}
	return out
}

// ClusterIDs returns the chronological cluster-ID sequence. This is the
// core's output to the downstream substitution solver.
func (c *Collection) ClusterIDs() []int32 {
	out := make([]int32, len(c.Strokes))
	for i := range c.Strokes {
		out[i] = c.Strokes[i].ClusterID
	}
	return out
}
