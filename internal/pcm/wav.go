package pcm

import (
	"fmt"
	"io"

	"github.com/farcloser/primordium/fault"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/farcloser/diapason/internal/types"
)

const wavFormatFloat = 3

// WAVReader decodes integer PCM WAV files into mono samples.
type WAVReader struct {
	decoder  *wav.Decoder
	buf      *audio.IntBuffer
	format   types.PCMFormat
	channels int
	scale    float64
}

// NewWAVReader validates the WAV header and prepares decoding.
func NewWAVReader(rs io.ReadSeeker) (*WAVReader, error) {
	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, ErrInvalidWAV)
	}

	if decoder.WavAudioFormat == wavFormatFloat {
		return nil, fmt.Errorf("%w: floating point WAV", ErrUnsupportedFormat)
	}

	fmtChunk := decoder.Format()
	bitDepth := int(decoder.BitDepth)

	maxVal := maxValue(bitDepth)
	if maxVal == 0 || fmtChunk.NumChannels <= 0 || fmtChunk.SampleRate <= 0 {
		return nil, fmt.Errorf(
			"%w: %d Hz, %d-bit, %d channels",
			ErrUnsupportedFormat,
			fmtChunk.SampleRate,
			bitDepth,
			fmtChunk.NumChannels,
		)
	}

	return &WAVReader{
		decoder: decoder,
		buf:     &audio.IntBuffer{Format: fmtChunk, SourceBitDepth: bitDepth},
		format: types.PCMFormat{
			SampleRate: fmtChunk.SampleRate,
			BitDepth:   types.BitDepth(bitDepth),   //nolint:gosec // validated above
			Channels:   uint(fmtChunk.NumChannels), //nolint:gosec // validated above
		},
		channels: fmtChunk.NumChannels,
		scale:    1 / (maxVal * float64(fmtChunk.NumChannels)),
	}, nil
}

// Format returns the format declared by the WAV header.
func (w *WAVReader) Format() types.PCMFormat {
	return w.format
}

// ReadSamples fills dst with up to len(dst) mono samples.
func (w *WAVReader) ReadSamples(dst []float64) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	need := len(dst) * w.channels
	if cap(w.buf.Data) < need {
		w.buf.Data = make([]int, need)
	}

	w.buf.Data = w.buf.Data[:need]

	n, err := w.decoder.PCMBuffer(w.buf)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	frames := n / w.channels
	if frames == 0 {
		return 0, io.EOF
	}

	for frame := range frames {
		var sum int

		for ch := range w.channels {
			sum += w.buf.Data[frame*w.channels+ch]
		}

		dst[frame] = float64(sum) * w.scale
	}

	return frames, nil
}
