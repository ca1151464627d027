package testutils

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodePCM16 encodes mono samples as 16-bit little-endian PCM, duplicated over channels.
func EncodePCM16(samples []float64, channels int) []byte {
	out := make([]byte, 0, len(samples)*2*channels)

	for _, s := range samples {
		v := uint16(toInt16(s)) //nolint:gosec // two's complement encoding for signed PCM samples
		for range channels {
			out = binary.LittleEndian.AppendUint16(out, v)
		}
	}

	return out
}

// EncodePCM24 encodes mono samples as 24-bit little-endian PCM.
func EncodePCM24(samples []float64) []byte {
	out := make([]byte, 0, len(samples)*3)

	for _, s := range samples {
		v := int32(math.Round(clamp(s) * 8388607))
		out = append(out, byte(v), byte(v>>8), byte(v>>16))
	}

	return out
}

// WritePCM writes mono samples as raw 16-bit PCM into a temporary file and returns its path.
func WritePCM(t *testing.T, name string, samples []float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, EncodePCM16(samples, 1), 0o600); err != nil {
		t.Fatalf("write pcm: %v", err)
	}

	return path
}

// WriteWAV writes mono samples as a 16-bit WAV file into a temporary directory and returns its path.
func WriteWAV(t *testing.T, name string, sampleRate int, samples []float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(toInt16(s))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		t.Fatalf("wav write: %v", err)
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("wav close: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}

	return path
}

func toInt16(s float64) int16 {
	return int16(math.Round(clamp(s) * 32767))
}

func clamp(s float64) float64 {
	return math.Max(-1, math.Min(1, s))
}
