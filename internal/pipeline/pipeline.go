// Package pipeline runs capture and analysis as two stages connected by a bounded frame queue.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/farcloser/diapason/internal/detection"
	"github.com/farcloser/diapason/internal/evaluation"
	"github.com/farcloser/diapason/internal/pcm"
	"github.com/farcloser/diapason/internal/signal"
	"github.com/farcloser/diapason/internal/spectrum"
	"github.com/farcloser/diapason/internal/temperament"
	"github.com/farcloser/diapason/internal/types"
)

const (
	defaultQueueSize = 4
	defaultChunkSize = 1024
)

// Config is everything a run needs. It is read-only once Run starts.
type Config struct {
	SampleRate int
	FrameSize  int
	Hop        int
	Window     signal.WindowKind
	Backend    spectrum.Backend

	Detection  detection.Options
	Evaluation evaluation.Options
	Resolver   *temperament.Resolver

	ToleranceCents float64
	HistorySize    int
	// History receives the smoothed frequencies of the run. Run allocates one of HistorySize
	// values when nil. It must not be read before results is closed.
	History *evaluation.PitchHistory

	// QueueSize bounds the frames waiting for analysis.
	QueueSize int
	// ChunkSize is the number of samples read from the source at once.
	ChunkSize int
}

// Run reads src until it is exhausted or ctx is cancelled and sends one result per frame.
//
// Cancellation stops the submission of new frames; frames already queued are still analyzed and
// delivered while ctx allows it. results is closed when Run returns. Cancellation is not an error.
func Run(ctx context.Context, src pcm.SampleReader, cfg Config, results chan<- types.FrameResult) error {
	defer close(results)

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	frames := make(chan *signal.TimeSeries, queueSize)
	// Frames travel back to capture once analyzed; capture allocates when none is free.
	free := make(chan *signal.TimeSeries, queueSize+1)

	var group errgroup.Group

	group.Go(func() error {
		defer close(frames)

		return capture(ctx, src, cfg, frames, free)
	})

	group.Go(func() error {
		analyze(ctx, cfg, frames, free, results)

		return nil
	})

	return group.Wait()
}

func capture(
	ctx context.Context,
	src pcm.SampleReader,
	cfg Config,
	frames chan<- *signal.TimeSeries,
	free <-chan *signal.TimeSeries,
) error {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	framer := signal.NewFramer(cfg.FrameSize, cfg.Hop, cfg.SampleRate)
	chunk := make([]float64, chunkSize)

	var (
		pending   *signal.TimeSeries
		submitted int
	)

	slog.Debug("pipeline.capture", "stage", "start", "frame size", cfg.FrameSize, "hop", cfg.Hop)

	for {
		if ctx.Err() != nil {
			slog.Debug("pipeline.capture", "stage", "cancelled", "frames", submitted)

			return nil
		}

		n, err := src.ReadSamples(chunk)
		framer.Push(chunk[:n])

		for {
			if pending == nil {
				select {
				case pending = <-free:
				default:
					pending = signal.NewTimeSeries(cfg.FrameSize, 1/float64(cfg.SampleRate))
				}
			}

			if !framer.Next(pending) {
				break
			}

			select {
			case frames <- pending:
				pending = nil
				submitted++
			case <-ctx.Done():
				slog.Debug("pipeline.capture", "stage", "cancelled", "frames", submitted)

				return nil
			}
		}

		if errors.Is(err, io.EOF) {
			slog.Debug("pipeline.capture", "stage", "end of stream", "frames", submitted)

			return nil
		}

		if err != nil {
			return err
		}
	}
}

func analyze(
	ctx context.Context,
	cfg Config,
	frames <-chan *signal.TimeSeries,
	free chan<- *signal.TimeSeries,
	results chan<- types.FrameResult,
) {
	detector := detection.NewDetector(
		signal.NewWindow(cfg.Window, cfg.FrameSize), cfg.Backend, cfg.SampleRate, cfg.Detection,
	)
	evaluator := evaluation.NewEvaluator(cfg.Evaluation, cfg.Resolver)
	history := cfg.History
	if history == nil {
		history = evaluation.NewPitchHistory(cfg.HistorySize)
	}

	tracker := evaluation.NewTracker(cfg.ToleranceCents, history)

	delivering := true
	dropped := 0

	for ts := range frames {
		detected := detector.Detect(ts)

		select {
		case free <- ts:
		default:
		}

		evaluated := evaluator.Evaluate(detected)
		state, current, cents := tracker.Update(evaluated)

		if !delivering {
			dropped++

			continue
		}

		select {
		case results <- types.FrameResult{
			Detection:  detected,
			Evaluation: evaluated,
			State:      state,
			Target:     tracker.Target(),
			Current:    current,
			Cents:      cents,
		}:
		case <-ctx.Done():
			delivering = false
			dropped++
		}
	}

	slog.Debug("pipeline.analyze", "stage", "done", "undelivered", dropped)
}
