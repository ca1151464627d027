//nolint:staticcheck // too dumb on Db vs. DB
package types

import "fmt"

type BitDepth uint

const (
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// PCMFormat describes the raw PCM stream fed to the pipeline.
type PCMFormat struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   uint
}

/*
Tuning State Interpretation

A frequency is classified against a target frequency with a tolerance in cents.
The tolerance is symmetric and the boundaries are inclusive on the in-tune side.

| Deviation (cents)         | State    |
|---------------------------|----------|
| < -tolerance              | TooLow   |
| -tolerance to +tolerance  | InTune   |
| > +tolerance              | TooHigh  |
| no valid current/target   | Unknown  |

## Tolerance Presets

| Index | Cents | Use case                            |
|-------|-------|-------------------------------------|
| 0     | 1     | Strobe-grade, reference instruments |
| 1     | 2     |                                     |
| 2     | 3     |                                     |
| 3     | 5     | Default. Beyond most listeners.     |
| 4     | 7     |                                     |
| 5     | 10    | Casual tuning                       |
| 6     | 15    |                                     |
| 7     | 20    | Very loose, noisy environments      |
*/

// TuningState is the classification of a frequency relative to a target.
type TuningState int

const (
	TuningUnknown TuningState = iota
	TuningTooLow
	TuningInTune
	TuningTooHigh
)

func (s TuningState) String() string {
	switch s {
	case TuningTooLow:
		return "too low"
	case TuningInTune:
		return "in tune"
	case TuningTooHigh:
		return "too high"
	case TuningUnknown:
		return "unknown"
	}

	return "unknown"
}

// MusicalNote is a note name and octave, as printed to users (for example A4 or C#3).
type MusicalNote struct {
	Base   string `json:"base"`
	Octave int    `json:"octave"`
}

func (n MusicalNote) String() string {
	return fmt.Sprintf("%s%d", n.Base, n.Octave)
}

// TuningTarget is the note the current pitch is compared against.
type TuningTarget struct {
	Note               MusicalNote `json:"note"`
	NoteIndex          int         `json:"note_index"`
	Frequency          float64     `json:"frequency"`
	IsPartOfInstrument bool        `json:"is_part_of_instrument"`
}

// Harmonic is a snapshot of one harmonic found in a frame.
type Harmonic struct {
	Number           int     `json:"number"`
	Frequency        float64 `json:"frequency"`
	SpectrumIndex    int     `json:"spectrum_index"`
	AmplitudeSquared float64 `json:"amplitude_squared"`
}

// FrequencyDetectionResult is the outcome of analyzing one frame.
// Frequency is 0 when no fundamental was found.
type FrequencyDetectionResult struct {
	FramePosition int64      `json:"frame_position"` // sample offset of the frame start
	Time          float64    `json:"time"`           // seconds at the frame end
	Frequency     float64    `json:"frequency"`
	Harmonics     []Harmonic `json:"harmonics,omitempty"`
	Confidence    float64    `json:"confidence"` // harmonic energy over band energy, 0-1
	NoiseGated    bool       `json:"noise_gated"`
}

// FrequencyEvaluationResult is the smoothed view of a detection.
// SmoothedFrequency is 0 when the current frame produced no detection.
type FrequencyEvaluationResult struct {
	SmoothedFrequency float64       `json:"smoothed_frequency"`
	Target            *TuningTarget `json:"target,omitempty"`
	// TimeSinceNoDetection is the time in seconds since the last frame with a valid detection.
	TimeSinceNoDetection float64 `json:"time_since_no_detection"`
}

// FrameResult bundles everything the pipeline produces for a frame.
type FrameResult struct {
	Detection  FrequencyDetectionResult  `json:"detection"`
	Evaluation FrequencyEvaluationResult `json:"evaluation"`
	State      TuningState               `json:"-"`
	// Target is the last resolved target. It outlives frames without detection.
	Target *TuningTarget `json:"target,omitempty"`
	// Current is the frequency the state was computed from (the last valid smoothed frequency).
	Current float64 `json:"current"`
	Cents   float64 `json:"cents"` // deviation of Current from the target, 0 when unknown
}
