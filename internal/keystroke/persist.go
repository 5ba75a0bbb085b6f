// internal/keystroke/persist.go
package keystroke

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/CharonDefalt/keysniff/internal/wave"
)

var (
	// ErrNegativeCount indicates a corrupt checkpoint header
	ErrNegativeCount = errors.New("stroke count is negative")
)

// Checkpoint format: little-endian, no header. A 4-byte signed stroke count
// followed by one 8-byte signed position per stroke. Only positions are
// persisted; everything else is recomputed.

// Write serializes the collection's positions to w.
func Write(w io.Writer, c *Collection) error {
	n := int32(len(c.Strokes))
	if err := binary.Write(w, binary.LittleEndian, n); err != nil {
		return fmt.Errorf("write stroke count: %w", err)
	}
	for i := range c.Strokes {
		if err := binary.Write(w, binary.LittleEndian, c.Strokes[i].Position); err != nil {
			return fmt.Errorf("write stroke %d: %w", i, err)
		}
	}
	return nil
}

// Read deserializes a stroke list from r, attaching source to every stroke.
// AvgCC and ClusterID reset to their defaults.
func Read(r io.Reader, source wave.View) (*Collection, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read stroke count: %w", err)
	}
	if n < 0 {
		return nil, ErrNegativeCount
	}

	c := &Collection{Strokes: make([]KeyStroke, n)}
	for i := range c.Strokes {
		if err := binary.Read(r, binary.LittleEndian, &c.Strokes[i].Position); err != nil {
			return nil, fmt.Errorf("read stroke %d: %w", i, err)
		}
		c.Strokes[i].Source = source
		c.Strokes[i].AvgCC = 0
		c.Strokes[i].ClusterID = UnassignedCluster
	}
	return c, nil
}

// Save writes the collection to a checkpoint file.
func Save(fname string, c *Collection) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("create %s: %w", fname, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := Write(bw, c); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", fname, err)
	}
	return nil
}

// Load reads a checkpoint file, attaching source to every stroke.
func Load(fname string, source wave.View) (*Collection, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fname, err)
	}
	defer f.Close()

	return Read(bufio.NewReader(f), source)
}

// Dump writes one "position 1" line per stroke, the plotting-friendly text
// form of a stroke list.
func Dump(w io.Writer, c *Collection) error {
	for i := range c.Strokes {
		if _, err := fmt.Fprintf(w, "%d 1\n", c.Strokes[i].Position); err != nil {
			return fmt.Errorf("dump stroke %d: %w", i, err)
		}
	}
	return nil
}
