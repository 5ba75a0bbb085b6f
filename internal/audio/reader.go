// internal/audio/reader.go
package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"

	"github.com/CharonDefalt/keysniff/internal/wave"
)

// NormalizedPeak is the amplitude the loudest sample is scaled to during
// ingestion.
const NormalizedPeak = 32000.0

var (
	// ErrInvalidWAV indicates the file is not a decodable WAV/RIFF file
	ErrInvalidWAV = errors.New("not a valid WAV file")
	// ErrUnsupportedChannels indicates the recording is not mono
	ErrUnsupportedChannels = errors.New("only mono recordings are supported")
	// ErrEmptyRecording indicates the file contains no samples
	ErrEmptyRecording = errors.New("recording contains no samples")
)

// LoadWaveform reads a recording from disk and returns the normalized
// waveform and its sample rate. Files ending in .wav decode as WAV; anything
// else is treated as a headerless little-endian float32 capture, the format
// the record command writes. Raw captures report the fallback rate since
// the format carries none.
func LoadWaveform(path string, fallbackRate int) (wave.Waveform, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return LoadWAV(path)
	}
	w, err := LoadRaw(path)
	return w, fallbackRate, err
}

// LoadWAV decodes a mono PCM WAV file and normalizes it so the loudest
// sample is ±32000.
func LoadWAV(path string) (wave.Waveform, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf.Format.NumChannels != 1 {
		return nil, 0, fmt.Errorf("%s has %d channels: %w", path, buf.Format.NumChannels, ErrUnsupportedChannels)
	}
	if len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("%s: %w", path, ErrEmptyRecording)
	}

	amax := 0.0
	for _, s := range buf.Data {
		if a := math.Abs(float64(s)); a > amax {
			amax = a
		}
	}

	res := make(wave.Waveform, len(buf.Data))
	if amax > 0 {
		for i, s := range buf.Data {
			res[i] = wave.Sample(math.Round(NormalizedPeak * (float64(s) / amax)))
		}
	}

	return res, buf.Format.SampleRate, nil
}

// LoadRaw reads a headerless little-endian float32 capture and normalizes
// it so the loudest sample is ±32000.
func LoadRaw(path string) (wave.Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	n := fi.Size() / 4
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyRecording)
	}

	buf := make([]float32, n)
	if err := binary.Read(bufio.NewReader(f), binary.LittleEndian, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return Normalize(buf), nil
}

// Normalize scales float32 frames so the loudest sample maps to ±32000 and
// rounds into the integer sample domain. An all-zero input stays zero.
func Normalize(frames []float32) wave.Waveform {
	amax := 0.0
	for _, s := range frames {
		if a := math.Abs(float64(s)); a > amax {
			amax = a
		}
	}

	res := make(wave.Waveform, len(frames))
	if amax > 0 {
		for i, s := range frames {
			res[i] = wave.Sample(math.Round(NormalizedPeak * (float64(s) / amax)))
		}
	}
	return res
}

// WriteRaw writes float32 frames in the headerless little-endian capture
// format.
func WriteRaw(w io.Writer, frames []float32) error {
	if err := binary.Write(w, binary.LittleEndian, frames); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	return nil
}

// SaveRaw writes a raw float32 capture file.
func SaveRaw(path string, frames []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := WriteRaw(bw, frames); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}
