// Package decode opens audio files as mono sample streams, natively for integer WAV and through
// ffmpeg for everything else.
package decode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/farcloser/diapason/internal/integration/ffmpeg"
	"github.com/farcloser/diapason/internal/integration/ffprobe"
	"github.com/farcloser/diapason/internal/pcm"
	"github.com/farcloser/diapason/internal/types"
)

const (
	DecoderWAV    = "wav"
	DecoderFFmpeg = "ffmpeg"
)

// Source is an opened audio stream.
type Source struct {
	Samples pcm.SampleReader
	Format  types.PCMFormat
	Decoder string
	// Probe is nil when the file was decoded natively.
	Probe *ffprobe.Result

	ProbeDuration  time.Duration
	DecodeDuration time.Duration

	closer io.Closer
}

// Close releases the underlying file, if still open.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	err := s.closer.Close()
	s.closer = nil

	return err
}

// Open prepares the audio stream with the given 0-based index of filePath for reading.
// WAV files only have stream 0.
func Open(ctx context.Context, filePath string, streamIndex int) (*Source, error) {
	file, err := os.Open(filePath) //nolint:gosec // CLI tools open user-specified audio files
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	if streamIndex == 0 {
		wavReader, wavErr := pcm.NewWAVReader(file)
		if wavErr == nil {
			slog.Debug("decode.Open", "file", filePath, "decoder", DecoderWAV)

			return &Source{
				Samples: wavReader,
				Format:  wavReader.Format(),
				Decoder: DecoderWAV,
				closer:  file,
			}, nil
		}

		slog.Debug("decode.Open", "file", filePath, "decoder", DecoderFFmpeg, "reason", wavErr)

		if _, err = file.Seek(0, io.SeekStart); err != nil {
			_ = file.Close()

			return nil, fmt.Errorf("rewinding file: %w", err)
		}
	}

	defer file.Close()

	source := &Source{Decoder: DecoderFFmpeg}

	probeStart := time.Now()
	source.Probe, err = ffprobe.Probe(ctx, filePath)
	source.ProbeDuration = time.Since(probeStart)

	if err != nil {
		return nil, fmt.Errorf("probing file: %w", err)
	}

	stream, err := source.Probe.AudioStream(streamIndex)
	if err != nil {
		return nil, err
	}

	if source.Format, err = stream.PCMFormat(types.Depth32); err != nil {
		return nil, err
	}

	var pcmBuf bytes.Buffer

	decodeStart := time.Now()
	err = ffmpeg.ExtractStream(ctx, file, &pcmBuf, streamIndex, &source.Format)
	source.DecodeDuration = time.Since(decodeStart)

	if err != nil {
		return nil, fmt.Errorf("extracting PCM: %w", err)
	}

	if source.Samples, err = pcm.NewReader(bytes.NewReader(pcmBuf.Bytes()), source.Format); err != nil {
		return nil, err
	}

	return source, nil
}
