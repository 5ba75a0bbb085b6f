// internal/audio/reader_test.go
package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/CharonDefalt/keysniff/internal/wave"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		frames []float32
		want   []wave.Sample
	}{
		{
			"full scale",
			[]float32{0.5, -1.0, 0.25},
			[]wave.Sample{16000, -32000, 8000},
		},
		{
			"quiet input scales up",
			[]float32{0.25, -0.125},
			[]wave.Sample{32000, -16000},
		},
		{
			"silence stays silent",
			[]float32{0, 0, 0},
			[]wave.Sample{0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.frames)
			if len(got) != len(tt.want) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRawRoundTrip(t *testing.T) {
	frames := []float32{0.5, -0.25, 0.125, 0}
	fname := filepath.Join(t.TempDir(), "capture.raw")

	if err := SaveRaw(fname, frames); err != nil {
		t.Fatalf("SaveRaw failed: %v", err)
	}

	got, err := LoadRaw(fname)
	if err != nil {
		t.Fatalf("LoadRaw failed: %v", err)
	}

	want := []wave.Sample{32000, -16000, 8000, 0}
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLoadRaw_Empty(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "empty.raw")
	if err := os.WriteFile(fname, nil, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := LoadRaw(fname); !errors.Is(err, ErrEmptyRecording) {
		t.Errorf("LoadRaw error = %v, want ErrEmptyRecording", err)
	}
}

// writeWAV encodes mono 16-bit PCM samples into a WAV file.
func writeWAV(t *testing.T, fname string, sampleRate int, data []int) {
	t.Helper()

	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
}

func TestLoadWAV(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "capture.wav")
	writeWAV(t, fname, 24000, []int{100, -200, 50})

	samples, sampleRate, err := LoadWAV(fname)
	if err != nil {
		t.Fatalf("LoadWAV failed: %v", err)
	}

	if sampleRate != 24000 {
		t.Errorf("sampleRate = %d, want 24000", sampleRate)
	}
	want := []wave.Sample{16000, -32000, 8000}
	if len(samples) != len(want) {
		t.Fatalf("length = %d, want %d", len(samples), len(want))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, samples[i], want[i])
		}
	}
}

func TestLoadWAV_Invalid(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(fname, []byte("not a riff file"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, _, err := LoadWAV(fname); err == nil {
		t.Error("expected error for invalid WAV data")
	}
}

func TestLoadWaveform_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()

	wavName := filepath.Join(dir, "capture.wav")
	writeWAV(t, wavName, 44100, []int{10, -20})

	rawName := filepath.Join(dir, "capture.raw")
	if err := SaveRaw(rawName, []float32{0.5, -1.0}); err != nil {
		t.Fatalf("SaveRaw failed: %v", err)
	}

	_, rate, err := LoadWaveform(wavName, 24000)
	if err != nil {
		t.Fatalf("LoadWaveform(wav) failed: %v", err)
	}
	if rate != 44100 {
		t.Errorf("wav sample rate = %d, want 44100", rate)
	}

	_, rate, err = LoadWaveform(rawName, 24000)
	if err != nil {
		t.Fatalf("LoadWaveform(raw) failed: %v", err)
	}
	if rate != 24000 {
		t.Errorf("raw fallback rate = %d, want 24000", rate)
	}
}
