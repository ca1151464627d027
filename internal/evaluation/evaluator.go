package evaluation

import (
	"github.com/farcloser/diapason/internal/temperament"
	"github.com/farcloser/diapason/internal/types"
)

// Options configures an Evaluator.
type Options struct {
	SmoothingWindow int
	NumFaultyValues int
	OutlierCents    float64
	// FrameAdvance is the time in seconds between two frames, used until two frames have been seen.
	FrameAdvance float64
	// ResetAfter is the inactivity in seconds after which smoothing starts over.
	ResetAfter float64
}

// Evaluator turns per-frame detections into smoothed frequencies with targets.
// It keeps state across frames and must be fed frames in stream order by a single goroutine.
type Evaluator struct {
	opts      Options
	smoother  *Smoother
	resolver  *temperament.Resolver
	timeSince float64
	lastTime  float64
	seen      bool
}

// NewEvaluator returns an Evaluator resolving targets with resolver.
func NewEvaluator(opts Options, resolver *temperament.Resolver) *Evaluator {
	return &Evaluator{
		opts:     opts,
		smoother: NewSmoother(opts.SmoothingWindow, opts.NumFaultyValues, opts.OutlierCents),
		resolver: resolver,
	}
}

// Evaluate consumes the detection of the next frame.
func (e *Evaluator) Evaluate(detection types.FrequencyDetectionResult) types.FrequencyEvaluationResult {
	advance := e.opts.FrameAdvance
	if e.seen && detection.Time > e.lastTime {
		advance = detection.Time - e.lastTime
	}

	e.lastTime = detection.Time
	e.seen = true

	if detection.Frequency <= 0 {
		e.timeSince += advance

		if e.opts.ResetAfter > 0 && e.timeSince > e.opts.ResetAfter {
			e.smoother.Reset()
		}

		return types.FrequencyEvaluationResult{TimeSinceNoDetection: e.timeSince}
	}

	e.timeSince = 0
	smoothed := e.smoother.Add(detection.Frequency)

	return types.FrequencyEvaluationResult{
		SmoothedFrequency: smoothed,
		Target:            e.resolver.Target(smoothed),
	}
}
