// Package pcm turns PCM byte streams and WAV files into mono float samples.
package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/diapason/internal/types"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported PCM format")
	ErrInvalidWAV        = errors.New("invalid WAV file")
)

// SampleReader produces mono samples normalized to [-1, 1].
// ReadSamples returns io.EOF once the source is exhausted.
type SampleReader interface {
	ReadSamples(dst []float64) (int, error)
}

// Reader decodes raw interleaved little-endian signed PCM and mixes channels down to mono.
// Incomplete frames are carried over between reads; a trailing incomplete frame is dropped.
type Reader struct {
	reader         io.Reader
	bytesPerSample int
	channels       int
	frameSize      int
	maxVal         float64

	buf     []byte
	pending int
	err     error
}

// NewReader returns a Reader decoding the given format.
func NewReader(reader io.Reader, format types.PCMFormat) (*Reader, error) {
	maxVal := maxValue(int(format.BitDepth)) //nolint:gosec // bit depth is a small constant

	if maxVal == 0 || format.Channels == 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf(
			"%w: %d Hz, %d-bit, %d channels",
			ErrUnsupportedFormat,
			format.SampleRate,
			format.BitDepth,
			format.Channels,
		)
	}

	bytesPerSample := int(format.BitDepth / 8) //nolint:gosec // bit depth is a small constant
	channels := int(format.Channels)           //nolint:gosec // channel count is small

	return &Reader{
		reader:         reader,
		bytesPerSample: bytesPerSample,
		channels:       channels,
		frameSize:      bytesPerSample * channels,
		maxVal:         maxVal,
	}, nil
}

// ReadSamples fills dst with up to len(dst) mono samples.
func (r *Reader) ReadSamples(dst []float64) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	need := len(dst) * r.frameSize
	if len(r.buf) < need {
		grown := make([]byte, need)
		copy(grown, r.buf[:r.pending])
		r.buf = grown
	}

	for {
		frames := min(r.pending/r.frameSize, len(dst))
		if frames > 0 {
			r.decode(dst[:frames], r.buf[:frames*r.frameSize])

			consumed := frames * r.frameSize
			r.pending = copy(r.buf, r.buf[consumed:r.pending])

			return frames, nil
		}

		if r.err != nil {
			if errors.Is(r.err, io.EOF) {
				return 0, io.EOF
			}

			return 0, fmt.Errorf("%w: %w", fault.ErrReadFailure, r.err)
		}

		n, err := r.reader.Read(r.buf[r.pending:])
		r.pending += n

		if err != nil {
			r.err = err
		}
	}
}

func (r *Reader) decode(dst []float64, data []byte) {
	scale := 1 / (r.maxVal * float64(r.channels))

	for frame := range dst {
		var sum float64

		offset := frame * r.frameSize

		for ch := range r.channels {
			sum += decodeSample(data[offset+ch*r.bytesPerSample:], r.bytesPerSample)
		}

		dst[frame] = sum * scale
	}
}

func decodeSample(data []byte, bytesPerSample int) float64 {
	switch bytesPerSample {
	case 2:
		return float64(int16(binary.LittleEndian.Uint16(data))) //nolint:gosec // two's complement conversion for signed PCM samples
	case 3:
		raw := int32(data[0]) | int32(data[1])<<8 | int32(data[2])<<16
		if raw&0x800000 != 0 {
			raw |= ^0xFFFFFF
		}

		return float64(raw)
	case 4:
		return float64(int32(binary.LittleEndian.Uint32(data))) //nolint:gosec // two's complement conversion for signed PCM samples
	default:
		return 0
	}
}
