package diapason

import "github.com/farcloser/diapason/internal/types"

type (
	// FrameResult is everything produced for one analysis frame.
	FrameResult = types.FrameResult
	// TuningState classifies a frequency against its target.
	TuningState = types.TuningState
	// TuningTarget is the note a frequency is compared against.
	TuningTarget = types.TuningTarget
	PCMFormat    = types.PCMFormat
)

const (
	TuningUnknown = types.TuningUnknown
	TuningTooLow  = types.TuningTooLow
	TuningInTune  = types.TuningInTune
	TuningTooHigh = types.TuningTooHigh
)

// SampleReader yields mono samples in [-1, 1] and io.EOF at the end of the stream.
type SampleReader interface {
	ReadSamples(dst []float64) (int, error)
}

// Summary aggregates the frames of a finite stream.
type Summary struct {
	Frames      int     `json:"frames"`
	ValidFrames int     `json:"valid_frames"` // frames with a detected fundamental
	Duration    float64 `json:"duration"`     // seconds

	MedianFrequency float64       `json:"median_frequency"` // of smoothed frequencies, 0 without detection
	Target          *TuningTarget `json:"target,omitempty"` // most frequent target
	MeanCents       float64       `json:"mean_cents"`
	StdDevCents     float64       `json:"stddev_cents"`
	InTuneRatio     float64       `json:"in_tune_ratio"` // over classified frames
	MeanConfidence  float64       `json:"mean_confidence"`
}
