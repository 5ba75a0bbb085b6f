// internal/keystroke/persist_test.go
package keystroke

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/CharonDefalt/keysniff/internal/wave"
)

func TestWrite_ExactLayout(t *testing.T) {
	c := &Collection{Strokes: []KeyStroke{
		{Position: 1},
		{Position: 0x0102030405060708},
	}}

	var buf bytes.Buffer
	if err := Write(&buf, c); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := []byte{
		2, 0, 0, 0, // count, little-endian int32
		1, 0, 0, 0, 0, 0, 0, 0, // position 1, little-endian int64
		8, 7, 6, 5, 4, 3, 2, 1, // position 2
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("layout = % x, want % x", buf.Bytes(), want)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	// Seven strokes with analysis results attached; reloading restores
	// positions exactly and resets the derived fields.
	source := make(wave.Waveform, 100000)
	view := source.ViewAt(0)

	orig := &Collection{}
	positions := []int64{2048, 10007, 25000, 31337, 48000, 77777, 99000}
	for i, p := range positions {
		orig.Strokes = append(orig.Strokes, KeyStroke{
			Source:    view,
			Position:  p,
			AvgCC:     0.25 * float64(i),
			ClusterID: int32(i%3 + 1),
		})
	}

	fname := filepath.Join(t.TempDir(), "capture.keys")
	if err := Save(fname, orig); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(fname, view)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Len() != len(positions) {
		t.Fatalf("loaded %d strokes, want %d", loaded.Len(), len(positions))
	}
	for i, want := range positions {
		s := loaded.Strokes[i]
		if s.Position != want {
			t.Errorf("stroke %d position = %d, want %d", i, s.Position, want)
		}
		if s.AvgCC != 0 {
			t.Errorf("stroke %d avgCC = %v, want reset to 0", i, s.AvgCC)
		}
		if s.ClusterID != UnassignedCluster {
			t.Errorf("stroke %d clusterID = %d, want %d", i, s.ClusterID, UnassignedCluster)
		}
		if s.Source.Len() != view.Len() {
			t.Errorf("stroke %d source not re-attached", i)
		}
	}
}

func TestRead_EmptyCollection(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, &Collection{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	c, err := Read(&buf, wave.View{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("loaded %d strokes, want 0", c.Len())
	}
}

func TestRead_NegativeCount(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0xff, 0xff, 0xff, 0xff})
	if _, err := Read(buf, wave.View{}); err == nil {
		t.Error("expected error for negative stroke count")
	}
}

func TestRead_Truncated(t *testing.T) {
	// Count says two strokes but only one position follows.
	buf := bytes.NewBuffer([]byte{
		2, 0, 0, 0,
		1, 0, 0, 0, 0, 0, 0, 0,
	})
	if _, err := Read(buf, wave.View{}); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestDump(t *testing.T) {
	c := &Collection{Strokes: []KeyStroke{
		{Position: 100},
		{Position: 2500},
	}}

	var buf bytes.Buffer
	if err := Dump(&buf, c); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	want := "100 1\n2500 1\n"
	if buf.String() != want {
		t.Errorf("dump = %q, want %q", buf.String(), want)
	}
}

func TestClusterIDs(t *testing.T) {
	c := &Collection{Strokes: []KeyStroke{
		{Position: 10, ClusterID: 3},
		{Position: 20, ClusterID: 1},
		{Position: 30, ClusterID: 3},
	}}

	got := c.ClusterIDs()
	want := []int32{3, 1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("clusterIDs[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
